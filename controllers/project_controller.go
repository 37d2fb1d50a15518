package controllers

import (
	"regexp"
	"strings"

	"studio-site-backend/database"
	"studio-site-backend/models"
	"studio-site-backend/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var videoURLPattern = regexp.MustCompile(`^https?://\S+$`)

type ProjectController struct {
	DB    *gorm.DB
	Slugs *utils.SlugResolver
	Log   *zap.Logger
}

func NewProjectController(db *gorm.DB, slugs *utils.SlugResolver, log *zap.Logger) *ProjectController {
	return &ProjectController{DB: db, Slugs: slugs, Log: log.Named("projects")}
}

type ProjectRequest struct {
	Title      string `json:"title"`
	Client     string `json:"client"`
	Summary    string `json:"summary"`
	Year       int    `json:"year"`
	CoverImage string `json:"coverImage"`
	VideoURL   string `json:"videoUrl"`
}

func (r ProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Client, validation.Length(0, 150)),
		validation.Field(&r.Year, validation.Min(1900), validation.Max(2100)),
		validation.Field(&r.VideoURL, validation.Match(videoURLPattern)),
	)
}

// GetProjects retrieves a list of projects with pagination and search
// @Summary Get Projects
// @Description Retrieve a list of portfolio projects with pagination and search
// @Tags Projects
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Number of projects per page" default(10)
// @Param search query string false "Search term for title or client"
// @Success 200 {object} utils.SuccessPaginatedResponse{data=[]models.ProjectResponse}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/projects [get]
func (pc *ProjectController) GetProjects(c fiber.Ctx) error {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	var projects []models.Project
	query := pc.DB.WithContext(c.Context()).Model(&models.Project{}).Order("year DESC, created_at DESC")

	search := strings.TrimSpace(c.Query("search", ""))
	if search != "" {
		query = query.Where("title ILIKE ? OR client ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		pc.Log.Error("failed to count projects", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse("Failed to retrieve projects", err))
	}

	if err := query.Limit(limit).Offset(offset).Find(&projects).Error; err != nil {
		pc.Log.Error("failed to retrieve projects", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse("Failed to retrieve projects", err))
	}

	projectList := make([]models.ProjectResponse, len(projects))
	for i, project := range projects {
		projectList[i] = *project.ToResponse()
	}

	message := "Projects retrieved successfully"
	if search != "" {
		message += " (filtered by search: " + search + ")"
	}

	return c.Status(fiber.StatusOK).JSON(utils.SuccessPaginatedResponse{
		Success: true,
		Message: message,
		Data:    projectList,
		Pagination: utils.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}

// GetProject retrieves a single project by slug
// @Summary Get Project
// @Description Retrieve a single portfolio project by slug
// @Tags Projects
// @Produce json
// @Param slug path string true "Project slug"
// @Success 200 {object} utils.SuccessResponse{data=models.ProjectResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/projects/{slug} [get]
func (pc *ProjectController) GetProject(c fiber.Ctx) error {
	slug := c.Params("slug")
	var project models.Project
	if err := pc.DB.WithContext(c.Context()).Where("slug = ?", slug).First(&project).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.NewErrorResponse("Project with slug "+slug+" not found.", err))
	}

	return c.Status(fiber.StatusOK).JSON(utils.NewSuccessResponse("Project retrieved successfully", project.ToResponse()))
}

// CreateProject creates a new project with a unique slug derived from its title
// @Summary Create Project
// @Description Create a new portfolio project; the slug is derived from the title
// @Tags Projects
// @Accept json
// @Produce json
// @Param project body ProjectRequest true "Project details"
// @Success 201 {object} utils.SuccessResponse{data=models.ProjectResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/projects [post]
func (pc *ProjectController) CreateProject(c fiber.Ctx) error {
	var req ProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Invalid request body", err))
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Validation failed", err))
	}

	slug, err := pc.Slugs.Resolve(c.Context(), req.Title, database.SlugExists(pc.DB, &models.Project{}, nil))
	if err != nil {
		return slugError(c, pc.Log, "Failed to create project", err)
	}

	project := models.Project{Slug: slug}
	req.apply(&project)

	if err := pc.DB.WithContext(c.Context()).Create(&project).Error; err != nil {
		return writeError(c, pc.Log, "Failed to create project", err)
	}

	pc.Log.Info("project created", zap.Stringer("id", project.ID), zap.String("slug", project.Slug))
	return c.Status(fiber.StatusCreated).JSON(utils.NewSuccessResponse("Project created successfully", project.ToResponse()))
}

// UpdateProject updates a project by ID, re-deriving the slug when the title changes
// @Summary Update Project
// @Description Update a portfolio project by ID
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID (UUID)"
// @Param request body ProjectRequest true "Updated project details"
// @Success 200 {object} utils.SuccessResponse{data=models.ProjectResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/projects/{id} [put]
func (pc *ProjectController) UpdateProject(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Invalid project id", err))
	}

	var req ProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Invalid request body", err))
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.NewErrorResponse("Validation failed", err))
	}

	var project models.Project
	if err := pc.DB.WithContext(c.Context()).First(&project, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.NewErrorResponse("Project with id "+id.String()+" not found.", err))
	}

	if req.Title != project.Title {
		slug, err := pc.Slugs.Resolve(c.Context(), req.Title, database.SlugExists(pc.DB, &models.Project{}, project.ID))
		if err != nil {
			return slugError(c, pc.Log, "Failed to update project", err)
		}
		project.Slug = slug
	}
	req.apply(&project)

	if err := pc.DB.WithContext(c.Context()).Save(&project).Error; err != nil {
		return writeError(c, pc.Log, "Failed to update project", err)
	}

	return c.Status(fiber.StatusOK).JSON(utils.NewSuccessResponse("Project updated successfully", project.ToResponse()))
}

func (r ProjectRequest) apply(p *models.Project) {
	p.Title = r.Title
	p.Client = r.Client
	p.Summary = r.Summary
	p.Year = r.Year
	p.CoverImage = r.CoverImage
	p.VideoURL = r.VideoURL
}
