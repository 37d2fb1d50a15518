package routes

import (
	"time"

	"studio-site-backend/config"
	"studio-site-backend/controllers"
	"studio-site-backend/docs"
	"studio-site-backend/models"
	"studio-site-backend/utils"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const swaggerUI = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta name="description" content="SwaggerUI" />
  <title>Studio API - Swagger UI</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '/docs/swagger.json',
      dom_id: '#swagger-ui',
    });
  };
</script>
</body>
</html>`

func SetupRoutes(app *fiber.App, cfg *config.Config, db *gorm.DB, log *zap.Logger) {
	slugs := utils.NewSlugResolver(cfg.SlugMaxAttempts)

	// Controllers
	postController := controllers.NewPostController(db, slugs, log)
	projectController := controllers.NewProjectController(db, slugs, log)

	api := app.Group("/api")

	// Health check
	api.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(utils.NewSuccessResponse("Health check successful", fiber.Map{
			"application": cfg.AppName,
			"version":     docs.SwaggerInfo.Version,
			"status":      "ok",
			"time":        time.Now().Format(models.DateTimeLayout),
		}))
	})

	// API Documentation routes
	app.Get("/docs/swagger.json", func(c fiber.Ctx) error {
		c.Set("Content-Type", "application/json")
		return c.SendString(docs.SwaggerInfo.ReadDoc())
	})

	app.Get("/docs", func(c fiber.Ctx) error {
		c.Set("Content-Type", "text/html")
		return c.SendString(swaggerUI)
	})

	// Post routes
	posts := api.Group("/posts")
	posts.Get("/", postController.GetPosts)
	posts.Get("/:slug", postController.GetPost)
	posts.Post("/", postController.CreatePost)
	posts.Put("/:id", postController.UpdatePost)
	posts.Delete("/:id", postController.DeletePost)

	// Project routes
	projects := api.Group("/projects")
	projects.Get("/", projectController.GetProjects)
	projects.Get("/:slug", projectController.GetProject)
	projects.Post("/", projectController.CreateProject)
	projects.Put("/:id", projectController.UpdateProject)
}
