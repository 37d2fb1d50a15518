package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"studio-site-backend/database"
	"studio-site-backend/models"
	"studio-site-backend/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostController struct {
	DB    *gorm.DB
	Slugs *utils.SlugResolver
	Log   *zap.Logger
}

func NewPostController(db *gorm.DB, slugs *utils.SlugResolver, log *zap.Logger) *PostController {
	return &PostController{DB: db, Slugs: slugs, Log: log.Named("posts")}
}

const autoExcerptLength = 160

// PostRequest is the body accepted by CreatePost and UpdatePost. Content is markdown.
type PostRequest struct {
	Title      string `json:"title"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	CoverImage string `json:"coverImage"`
	Published  bool   `json:"published"`
}

func (r PostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Excerpt, validation.Length(0, 500)),
		validation.Field(&r.CoverImage, validation.Length(0, 2048)),
	)
}

// apply copies the request onto post, rendering the markdown body and
// deriving an excerpt when none was given.
func (r PostRequest) apply(post *models.Post, now time.Time) error {
	rendered, err := utils.RenderMarkdown(r.Content)
	if err != nil {
		return err
	}

	post.Title = r.Title
	post.Content = r.Content
	post.ContentHTML = rendered
	post.CoverImage = r.CoverImage
	post.Excerpt = strings.TrimSpace(r.Excerpt)
	if post.Excerpt == "" {
		post.Excerpt = utils.PlainExcerpt(rendered, autoExcerptLength)
	}

	if r.Published {
		post.Publish(now)
	} else {
		post.Published = false
	}
	return nil
}

// GetPosts retrieves a list of posts with pagination and search
// @Summary Get Posts
// @Description Retrieve a list of blog posts with pagination and search
// @Tags Posts
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Number of posts per page" default(10)
// @Param search query string false "Search term for title or excerpt"
// @Param published query bool false "Filter by published state"
// @Success 200 {object} utils.SuccessPaginatedResponse{data=[]models.PostResponse}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/posts [get]
func (pc *PostController) GetPosts(c fiber.Ctx) error {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	var posts []models.Post

	// Build base query
	query := pc.DB.WithContext(c.Context()).Model(&models.Post{}).Order("created_at DESC")

	var filters []string

	search := strings.TrimSpace(c.Query("search", ""))
	if search != "" {
		query = query.Where("title ILIKE ? OR excerpt ILIKE ?", "%"+search+"%", "%"+search+"%")
		filters = append(filters, "search: "+search)
	}

	if published := c.Query("published", ""); published != "" {
		value, err := strconv.ParseBool(published)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Invalid published filter", err))
		}
		query = query.Where("published = ?", value)
		filters = append(filters, "published: "+published)
	}

	// Get total count for pagination
	var total int64
	if err := query.Count(&total).Error; err != nil {
		pc.Log.Error("failed to count posts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse("Failed to retrieve posts", err))
	}

	if err := query.Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		pc.Log.Error("failed to retrieve posts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse("Failed to retrieve posts", err))
	}

	postList := make([]models.PostResponse, len(posts))
	for i, post := range posts {
		postList[i] = *post.ToResponse()
	}

	message := "Posts retrieved successfully"
	if len(filters) > 0 {
		message += fmt.Sprintf(" (filtered by %s)", strings.Join(filters, " | "))
	}

	return c.Status(fiber.StatusOK).JSON(utils.SuccessPaginatedResponse{
		Success: true,
		Message: message,
		Data:    postList,
		Pagination: utils.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}

// GetPost retrieves a single post by slug
// @Summary Get Post
// @Description Retrieve a single blog post by slug
// @Tags Posts
// @Accept json
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} utils.SuccessResponse{data=models.PostResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/posts/{slug} [get]
func (pc *PostController) GetPost(c fiber.Ctx) error {
	slug := c.Params("slug")
	var post models.Post
	if err := pc.DB.WithContext(c.Context()).Where("slug = ?", slug).First(&post).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.NewErrorResponse("Post with slug "+slug+" not found.", err))
	}

	return c.Status(fiber.StatusOK).JSON(utils.NewSuccessResponse("Post retrieved successfully", post.ToResponse()))
}

// CreatePost creates a new post with a unique slug derived from its title
// @Summary Create Post
// @Description Create a new blog post; the slug is derived from the title
// @Tags Posts
// @Accept json
// @Produce json
// @Param post body PostRequest true "Post details"
// @Success 201 {object} utils.SuccessResponse{data=models.PostResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/posts [post]
func (pc *PostController) CreatePost(c fiber.Ctx) error {
	var req PostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Invalid request body", err))
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Validation failed", err))
	}

	slug, err := pc.Slugs.Resolve(c.Context(), req.Title, database.SlugExists(pc.DB, &models.Post{}, nil))
	if err != nil {
		return slugError(c, pc.Log, "Failed to create post", err)
	}

	newPost := models.Post{Slug: slug}
	if err := req.apply(&newPost, time.Now()); err != nil {
		pc.Log.Error("failed to render post content", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse("Failed to create post", err))
	}

	if err := pc.DB.WithContext(c.Context()).Create(&newPost).Error; err != nil {
		return writeError(c, pc.Log, "Failed to create post", err)
	}

	pc.Log.Info("post created", zap.Uint("id", newPost.ID), zap.String("slug", newPost.Slug))
	return c.Status(fiber.StatusCreated).JSON(utils.NewSuccessResponse("Post created successfully", newPost.ToResponse()))
}

// UpdatePost updates an existing post by ID, re-deriving the slug when the title changes
// @Summary Update Post
// @Description Update a blog post by ID
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body PostRequest true "Updated post details"
// @Success 200 {object} utils.SuccessResponse{data=models.PostResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/posts/{id} [put]
func (pc *PostController) UpdatePost(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Invalid post id", err))
	}

	var req PostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Invalid request body", err))
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Validation failed", err))
	}

	var post models.Post
	if err := pc.DB.WithContext(c.Context()).First(&post, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.NewErrorResponse(fmt.Sprintf("Post with id %d not found.", id), err))
	}

	if req.Title != post.Title {
		slug, err := pc.Slugs.Resolve(c.Context(), req.Title, database.SlugExists(pc.DB, &models.Post{}, post.ID))
		if err != nil {
			return slugError(c, pc.Log, "Failed to update post", err)
		}
		post.Slug = slug
	}

	if err := req.apply(&post, time.Now()); err != nil {
		pc.Log.Error("failed to render post content", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse("Failed to update post", err))
	}

	if err := pc.DB.WithContext(c.Context()).Save(&post).Error; err != nil {
		return writeError(c, pc.Log, "Failed to update post", err)
	}

	return c.Status(fiber.StatusOK).JSON(utils.NewSuccessResponse("Post updated successfully", post.ToResponse()))
}

// DeletePost deletes a post by ID
// @Summary Delete Post
// @Description Delete a blog post by ID
// @Tags Posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/posts/{id} [delete]
func (pc *PostController) DeletePost(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Invalid post id", err))
	}

	result := pc.DB.WithContext(c.Context()).Delete(&models.Post{}, id)
	if result.Error != nil {
		pc.Log.Error("failed to delete post", zap.Uint64("id", id), zap.Error(result.Error))
		return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse("Failed to delete post", result.Error))
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(utils.NewErrorResponse(fmt.Sprintf("Post with id %d not found.", id), gorm.ErrRecordNotFound))
	}

	return c.Status(fiber.StatusOK).JSON(utils.NewSuccessResponse("Post deleted successfully", nil))
}
