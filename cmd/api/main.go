package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"leadcollector_backend/internal/controller"
	"leadcollector_backend/internal/middleware"
	"leadcollector_backend/internal/model"
	"leadcollector_backend/internal/repository"
	"leadcollector_backend/internal/service"
	"leadcollector_backend/pkg/config"
	"leadcollector_backend/pkg/cron"
	"leadcollector_backend/pkg/database"
	"leadcollector_backend/pkg/email"
	"leadcollector_backend/pkg/utils/jwt"
	"leadcollector_backend/pkg/utils/storage"
)

type controllers struct {
	auth      *controller.AuthController
	leads     *controller.LeadController
	groups    *controller.GroupController
	templates *controller.TemplateController
	campaigns *controller.CampaignController
	tracking  *controller.TrackingController
	publish   *controller.PublishController
	forms     *controller.FormController
}

func setupRoutes(app *fiber.App, ctl controllers, jwtManager *jwt.Manager) {
	api := app.Group("/api")
	authRequired := middleware.AuthMiddleware(jwtManager)

	// Auth Routes. The public register endpoint only works until the first
	// admin exists; after that new admins are created through /users.
	auth := api.Group("/auth")
	auth.Post("/register", ctl.auth.Register)
	auth.Post("/login", ctl.auth.Login)
	api.Get("/me", authRequired, ctl.auth.GetMe)
	api.Post("/users", authRequired, ctl.auth.Register)

	// Public lead intake
	api.Post("/subscribe", ctl.leads.Submit)
	api.Get("/confirm/:token", ctl.leads.Confirm)
	api.Get("/unsubscribe/:id/:token", ctl.leads.Unsubscribe)

	// Public form definitions
	api.Get("/forms/:id/public", ctl.forms.Show)

	// Email engagement tracking
	api.Get("/track/open/:logId", ctl.tracking.Open)
	api.Get("/track/click/:logId", ctl.tracking.Click)

	// Publish-event webhook
	api.Post("/webhooks/publish", ctl.publish.Handle)

	// Protected lead routes
	leads := api.Group("/leads", authRequired)
	leads.Get("/", ctl.leads.List)
	leads.Get("/stats", ctl.leads.Stats)
	leads.Get("/export", ctl.leads.Export)
	leads.Post("/", ctl.leads.Create)
	leads.Get("/:id", ctl.leads.Get)
	leads.Put("/:id", ctl.leads.Update)
	leads.Delete("/:id", ctl.leads.Delete)
	leads.Put("/:id/categories", ctl.leads.UpdateCategories)
	leads.Put("/:id/groups", ctl.leads.UpdateGroups)

	// Protected group routes
	groups := api.Group("/groups", authRequired)
	groups.Get("/", ctl.groups.List)
	groups.Post("/", ctl.groups.Create)
	groups.Get("/:id", ctl.groups.Get)
	groups.Put("/:id", ctl.groups.Update)
	groups.Delete("/:id", ctl.groups.Delete)
	groups.Get("/:id/stats", ctl.groups.Stats)
	groups.Post("/:id/categories/:categoryId", ctl.groups.AssignCategory)
	groups.Delete("/:id/categories/:categoryId", ctl.groups.RemoveCategory)
	groups.Post("/:id/leads/:leadId", ctl.groups.AddLead)
	groups.Delete("/:id/leads/:leadId", ctl.groups.RemoveLead)

	// Protected template routes
	templates := api.Group("/templates", authRequired)
	templates.Get("/", ctl.templates.List)
	templates.Post("/", ctl.templates.Create)
	templates.Get("/:id", ctl.templates.Get)
	templates.Put("/:id", ctl.templates.Update)
	templates.Delete("/:id", ctl.templates.Delete)
	templates.Post("/:id/test", ctl.templates.TestSend)

	// Protected campaign routes
	campaigns := api.Group("/campaigns", authRequired)
	campaigns.Get("/", ctl.campaigns.List)
	campaigns.Post("/", ctl.campaigns.Create)
	campaigns.Get("/:id", ctl.campaigns.Get)
	campaigns.Put("/:id", ctl.campaigns.Update)
	campaigns.Delete("/:id", ctl.campaigns.Delete)
	campaigns.Post("/:id/send", ctl.campaigns.Send)
	campaigns.Post("/:id/schedule", ctl.campaigns.Schedule)
	campaigns.Get("/:id/stats", ctl.campaigns.Stats)

	// Protected form routes
	forms := api.Group("/forms", authRequired)
	forms.Get("/", ctl.forms.List)
	forms.Post("/", ctl.forms.Create)
	forms.Get("/:id", ctl.forms.Get)
	forms.Put("/:id", ctl.forms.Update)
	forms.Delete("/:id", ctl.forms.Delete)
}

func main() {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatal("Could not connect to database:", err)
	}

	err = database.Migrate(db,
		&model.User{},
		&model.Lead{},
		&model.LeadCategory{},
		&model.Group{},
		&model.LeadGroup{},
		&model.GroupCategory{},
		&model.NotificationTemplate{},
		&model.Campaign{},
		&model.CampaignLog{},
		&model.Form{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	mailer, err := email.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	if err != nil {
		log.Fatal("Could not initialize email service:", err)
	}

	exportStore, err := storage.NewExportStore(context.Background(), cfg.Export.Bucket, cfg.Export.Region)
	if err != nil {
		log.Printf("Export storage unavailable: %v", err)
		exportStore = nil
	}

	jwtManager := jwt.NewManager(cfg.App.JWTSecret)

	userRepo := repository.NewUserRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	formRepo := repository.NewFormRepository(db)

	if err := formRepo.EnsureDefault(); err != nil {
		log.Printf("Could not seed default form: %v", err)
	}

	resolver := service.NewResolver(leadRepo, groupRepo)
	leadService := service.NewLeadService(leadRepo, formRepo, mailer, exportStore, cfg.App, cfg.Mail)
	groupService := service.NewGroupService(groupRepo)
	dispatcher := service.NewDispatcher(templateRepo, resolver, mailer, cfg.App)
	campaignService := service.NewCampaignService(campaignRepo, resolver, mailer, cfg.App, leadService.UnsubscribeURL)

	ctl := controllers{
		auth:      controller.NewAuthController(userRepo, jwtManager),
		leads:     controller.NewLeadController(leadService),
		groups:    controller.NewGroupController(groupService),
		templates: controller.NewTemplateController(templateRepo, dispatcher),
		campaigns: controller.NewCampaignController(campaignService),
		tracking:  controller.NewTrackingController(campaignService),
		publish:   controller.NewPublishController(dispatcher, cfg.App.WebhookSecret),
		forms:     controller.NewFormController(db),
	}

	cron.StartCampaignJobs(campaignService)
	cron.StartLeadPurge(leadService, cfg.App.PurgeAfterDays)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app, ctl, jwtManager)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
