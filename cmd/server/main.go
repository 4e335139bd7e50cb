package main

import (
	"log"
	"strings"

	"mosprom-backend/internal/analytics"
	"mosprom-backend/internal/audit"
	"mosprom-backend/internal/auth"
	"mosprom-backend/internal/cache"
	"mosprom-backend/internal/config"
	"mosprom-backend/internal/database"
	"mosprom-backend/internal/models"
	"mosprom-backend/internal/organization"
	"mosprom-backend/internal/registry"
	"mosprom-backend/internal/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/template/html/v2"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	cacheClient := cache.New(cfg)
	fnsClient := registry.NewClient(cfg)

	engine := html.New(cfg.TemplatesPath, ".html")
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Внутренняя ошибка сервера",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Static("/static", "./static")

	// HTML-страницы реестра
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/analytics")
	})
	app.Get("/analytics", analytics.AnalyticsPageHandler(cacheClient))
	app.Get("/organizations", organization.ListOrganizationsHandler())
	app.Get("/organizations/create", organization.CreatePageHandler())
	app.Get("/organizations/export", organization.ExportOrganizationsHandler())
	app.Get("/organizations/:id", organization.ViewOrganizationHandler())
	app.Get("/organizations/:id/edit", organization.EditPageHandler())
	app.Get("/organizations/:id/analytics", analytics.OrganizationAnalyticsHandler())
	app.Get("/upload", upload.PageHandler())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/operators", auth.CreateOperatorHandler())

	// Реестр предприятий
	protected.Post("/organizations", organization.CreateOrganizationHandler(cacheClient))
	protected.Delete("/organizations/:id", organization.DeleteOrganizationHandler(cacheClient))
	protected.Post("/organizations/:id/edit-full", organization.UpdateOrganizationFullHandler(cacheClient))

	// Обогащение данными ФНС
	protected.Get("/fns/organization/:inn", registry.OrganizationHandler(fnsClient))
	protected.Post("/organizations/:id/update-from-fns", registry.UpdateFromFNSHandler(fnsClient, cacheClient))
	protected.Post("/organizations/:id/import-financials", registry.ImportFinancialsHandler(fnsClient, cacheClient))

	// Импорт реестра из Excel
	protected.Post("/upload", upload.UploadHandler(cfg, cacheClient))

	// Журнал аудита
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
