package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/forgedao/forgeboard/internal/handlers"
	"github.com/forgedao/forgeboard/internal/middleware"
	"github.com/forgedao/forgeboard/internal/models"
	"github.com/forgedao/forgeboard/internal/repositories"
	"github.com/forgedao/forgeboard/internal/services"
	"github.com/forgedao/forgeboard/internal/workers"
	"github.com/forgedao/forgeboard/pkg/config"
	"github.com/forgedao/forgeboard/pkg/database"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	gin.SetMode(config.AppConfig.Server.Mode)

	// Initialize database
	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(database.DB)
	adminRepo := repositories.NewAdminRepository(database.DB)
	eventRepo := repositories.NewEventRepository(database.DB)
	participationRepo := repositories.NewEventParticipationRepository(database.DB)
	activityRepo := repositories.NewEventActivityRepository(database.DB)
	proposalRepo := repositories.NewProposalRepository(database.DB)
	contributionRepo := repositories.NewContributionRepository(database.DB)

	// Scoring configuration
	activityPoints := models.DefaultActivityPoints()
	rankWeights := models.DefaultRankWeights()

	// Services
	githubService := services.NewGitHubService()
	githubRepoService := services.NewGithubRepoService()
	metricsService := services.NewGithubMetricsService(config.AppConfig.GitHub.Token, rankWeights)

	userService := services.NewUserService(userRepo, activityRepo)
	activityService := services.NewActivityService(activityRepo, activityPoints)
	participationService := services.NewParticipationService(participationRepo, activityRepo)
	syncService := services.NewSyncService(participationRepo, activityService, participationService, githubRepoService, config.AppConfig.Sync.Concurrency)
	rankingService := services.NewRankingService(userRepo, proposalRepo, contributionRepo, participationRepo, activityRepo, metricsService, rankWeights)
	eventService := services.NewEventService(eventRepo, participationRepo, userRepo, activityService, participationService, githubRepoService)
	proposalService := services.NewProposalService(proposalRepo, contributionRepo, userRepo, githubRepoService)
	adminService := services.NewAdminService(adminRepo, userRepo, eventRepo, proposalRepo, config.AppConfig.Session.Secret)
	exportService := services.NewExportService(participationService)

	// Workers
	workerManager := workers.NewWorkerManager()
	syncInterval := time.Duration(config.AppConfig.Sync.IntervalMinutes) * time.Minute
	if err := workerManager.StartAll(syncService, syncInterval); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}
	defer workerManager.StopAll()

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, githubService)
	userHandler := handlers.NewUserHandler(userService)
	rankingHandler := handlers.NewRankingHandler(rankingService)
	proposalHandler := handlers.NewProposalHandler(proposalService)
	eventHandler := handlers.NewEventHandler(eventService, participationService, activityService, syncService, exportService)
	adminHandler := handlers.NewAdminHandler(adminService, eventService, userService, proposalService)
	healthHandler := handlers.NewHealthHandler(workerManager)

	// Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.AppConfig.Server.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SessionMiddleware())

	setupRoutes(router, authHandler, userHandler, rankingHandler, proposalHandler, eventHandler, adminHandler, healthHandler, adminService)

	server := &http.Server{
		Addr:    ":" + config.AppConfig.Server.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", config.AppConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	log.Println("Server stopped")
}

func setupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	rankingHandler *handlers.RankingHandler,
	proposalHandler *handlers.ProposalHandler,
	eventHandler *handlers.EventHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	adminService *services.AdminService,
) {
	router.GET("/health", healthHandler.Health)

	auth := router.Group("/auth")
	{
		auth.GET("/github", authHandler.GitHubLogin)
		auth.GET("/github/callback", authHandler.GitHubCallback)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		auth.POST("/logout", authHandler.Logout)
	}

	users := router.Group("/users")
	{
		users.GET("/:username", userHandler.GetProfile)
		users.PUT("/me", middleware.AuthRequired(), userHandler.UpdateProfile)
		users.GET("/me/activities", middleware.AuthRequired(), userHandler.GetActivities)
	}

	ranking := router.Group("/ranking")
	{
		ranking.GET("/leaderboard", rankingHandler.GetLeaderboard)
		ranking.GET("/stats", rankingHandler.GetStats)
		ranking.POST("/refresh", middleware.AuthRequired(), rankingHandler.RefreshMyRank)
	}

	proposals := router.Group("/proposals")
	{
		proposals.GET("", proposalHandler.List)
		proposals.GET("/:id", proposalHandler.Get)
		proposals.POST("", middleware.AuthRequired(), proposalHandler.Create)
		proposals.PUT("/:id", middleware.AuthRequired(), proposalHandler.Update)
		proposals.DELETE("/:id", middleware.AuthRequired(), proposalHandler.Delete)
		proposals.POST("/:id/branches", middleware.AuthRequired(), proposalHandler.CreateBranch)
		proposals.POST("/:id/pull-requests", middleware.AuthRequired(), proposalHandler.CreatePullRequest)
		proposals.GET("/:id/pull-requests", middleware.AuthRequired(), proposalHandler.ListPullRequests)
		proposals.POST("/:id/pull-requests/merge", middleware.AuthRequired(), proposalHandler.MergePullRequest)
	}

	events := router.Group("/events")
	{
		events.GET("", middleware.AuthRequired(), eventHandler.List)
		events.GET("/ranks", eventHandler.Ranks)
		events.GET("/:id", eventHandler.Get)
		events.GET("/:id/activity-feed", eventHandler.ActivityFeed)
		events.GET("/:id/participation-status", middleware.AuthRequired(), eventHandler.ParticipationStatus)
		events.GET("/:id/leaderboard", eventHandler.Leaderboard)
		events.GET("/:id/leaderboard/export", eventHandler.ExportLeaderboard)
		events.POST("/:id/participate", middleware.AuthRequired(), eventHandler.Participate)
		events.POST("/:id/withdraw", middleware.AuthRequired(), eventHandler.Withdraw)
		events.GET("/me/participations", middleware.AuthRequired(), eventHandler.MyParticipations)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/login", adminHandler.Login)

		authorized := admin.Group("", middleware.AdminRequired(adminService))
		{
			authorized.GET("/dashboard", adminHandler.Dashboard)
			authorized.GET("/users", adminHandler.ListUsers)
			authorized.GET("/proposals", adminHandler.ListProposals)
			authorized.GET("/events", adminHandler.ListAllEvents)
			authorized.POST("/events", eventHandler.Create)
			authorized.PUT("/events/:id", eventHandler.Update)
			authorized.DELETE("/events/:id", eventHandler.Delete)
			authorized.POST("/events/:id/sync", eventHandler.Sync)
			authorized.POST("/ranking/recalculate", rankingHandler.RecalculateAll)
			authorized.POST("/ranking/users/:id/recalculate", rankingHandler.RecalculateUser)

			super := authorized.Group("", middleware.SuperAdminRequired())
			{
				super.GET("/admins", adminHandler.ListAdmins)
				super.POST("/admins", adminHandler.CreateAdmin)
			}
		}
	}
}
