package routes

import (
	"log"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfit/studioback/internal/config"
	"github.com/openfit/studioback/internal/handlers"
	"github.com/openfit/studioback/internal/middleware"
	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
	"github.com/openfit/studioback/internal/services"
	schedulews "github.com/openfit/studioback/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	var storage services.PhotoStorage
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storage = services.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	scheduleHub := schedulews.NewHub()
	go scheduleHub.Run()

	studioTZ, err := time.LoadLocation(cfg.StudioTimezone)
	if err != nil {
		log.Printf("invalid STUDIO_TZ %q, falling back to UTC: %v", cfg.StudioTimezone, err)
		studioTZ = time.UTC
	}

	schedulingService := services.NewSchedulingService(db, sessionRepo, availabilityRepo, trainerRepo, memberRepo, scheduleHub, studioTZ)
	memberService := services.NewMemberService(memberRepo, storage)
	trainerService := services.NewTrainerService(trainerRepo, availabilityRepo, storage)
	commentService := services.NewCommentService(commentRepo, sessionRepo)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, planRepo, memberRepo)
	statsService := services.NewStatsService(memberRepo, sessionRepo, subscriptionRepo)

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	sessionHandler := handlers.NewSessionHandler(schedulingService)
	memberHandler := handlers.NewMemberHandler(memberService)
	trainerHandler := handlers.NewTrainerHandler(trainerService)
	commentHandler := handlers.NewCommentHandler(commentService)
	planHandler := handlers.NewPlanHandler(planRepo)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	statsHandler := handlers.NewStatsHandler(statsService)
	schemaHandler := handlers.NewSchemaHandler()
	feedHandler := handlers.NewScheduleFeedHandler(scheduleHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// The feed authenticates via query token, so it must be registered
	// before the bearer-only guard on the /v1 prefix.
	api.Use("/v1/ws", feedHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(feedHandler.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))
	staffOnly := middleware.RequireRole(models.RoleAdmin, models.RoleTrainer)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	members := authProtected.Group("/members", staffOnly)
	members.Post("", memberHandler.CreateMember)
	members.Get("", memberHandler.ListMembers)
	members.Get("/stats", memberHandler.Stats)
	members.Get("/export", memberHandler.ExportCSV)
	members.Post("/bulk-delete", adminOnly, memberHandler.BulkDelete)
	members.Get("/by-code/:code", memberHandler.GetMemberByCode)
	members.Get("/:id", memberHandler.GetMember)
	members.Put("/:id", memberHandler.UpdateMember)
	members.Put("/:id/status", memberHandler.UpdateStatus)
	members.Delete("/:id", adminOnly, memberHandler.DeleteMember)
	members.Get("/:id/qr", memberHandler.QRCode)
	members.Post("/:id/photo", memberHandler.UploadPhoto)
	members.Get("/:id/subscriptions", subscriptionHandler.ListForMember)

	trainers := authProtected.Group("/trainers")
	trainers.Get("", trainerHandler.ListTrainers)
	trainers.Get("/:id", trainerHandler.GetTrainer)
	trainers.Get("/:id/availability", trainerHandler.ListAvailability)
	trainers.Post("", adminOnly, trainerHandler.CreateTrainer)
	trainers.Put("/:id", staffOnly, trainerHandler.UpdateTrainer)
	trainers.Delete("/:id", adminOnly, trainerHandler.DeleteTrainer)
	trainers.Post("/:id/availability", staffOnly, trainerHandler.AddAvailability)
	trainers.Delete("/:id/availability/:windowId", staffOnly, trainerHandler.RemoveAvailability)
	trainers.Post("/:id/photo", staffOnly, trainerHandler.UploadPhoto)

	sessions := authProtected.Group("/sessions")
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/calendar", sessionHandler.Calendar)
	sessions.Post("/check-conflicts", sessionHandler.CheckConflicts)
	sessions.Post("", staffOnly, sessionHandler.BookSession)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Put("/:id", staffOnly, sessionHandler.Reschedule)
	sessions.Put("/:id/status", staffOnly, sessionHandler.UpdateStatus)
	sessions.Delete("/:id", adminOnly, sessionHandler.DeleteSession)
	sessions.Get("/:id/comments", commentHandler.ListComments)
	sessions.Post("/:id/comments", commentHandler.AddComment)
	sessions.Put("/:id/comments/:commentId", commentHandler.UpdateComment)
	sessions.Delete("/:id/comments/:commentId", commentHandler.DeleteComment)

	plans := authProtected.Group("/plans")
	plans.Get("", planHandler.ListPlans)
	plans.Get("/:id", planHandler.GetPlan)
	plans.Post("", adminOnly, planHandler.CreatePlan)
	plans.Put("/:id", adminOnly, planHandler.UpdatePlan)
	plans.Delete("/:id", adminOnly, planHandler.DeletePlan)

	subscriptions := authProtected.Group("/subscriptions", staffOnly)
	subscriptions.Post("", subscriptionHandler.Subscribe)
	subscriptions.Get("/:id", subscriptionHandler.GetSubscription)
	subscriptions.Post("/:id/cancel", subscriptionHandler.Cancel)
	subscriptions.Post("/:id/freeze", subscriptionHandler.Freeze)
	subscriptions.Post("/:id/unfreeze", subscriptionHandler.Unfreeze)

	authProtected.Get("/stats/dashboard", staffOnly, statsHandler.Dashboard)
	authProtected.Get("/schema/sessions", schemaHandler.SessionSchema)
}
