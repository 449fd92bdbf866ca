package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/assessment-api/internal/config"
	"github.com/yourusername/assessment-api/internal/handler"
	"github.com/yourusername/assessment-api/internal/middleware"
	pgRepo "github.com/yourusername/assessment-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/assessment-api/internal/repository/redis"
	"github.com/yourusername/assessment-api/internal/service"
	"github.com/yourusername/assessment-api/pkg/auth"
	"github.com/yourusername/assessment-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories
	userRepo := pgRepo.NewUserRepo(db)
	subjectRepo := pgRepo.NewSubjectRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	accessRepo := pgRepo.NewAccessRequestRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Outbound email is optional; without an API key decisions are still
	// committed, just not notified.
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.APIKey != "" {
		emailService, err = service.NewResendEmailService(cfg.Email.APIKey, cfg.Email.FromAddress)
		if err != nil {
			log.Printf("Failed to initialize email service: %v", err)
			os.Exit(1)
		}
		log.Println("Email notifications enabled")
	} else {
		log.Println("EMAIL_API_KEY not set, email notifications disabled")
	}

	// Services
	clock := service.SystemClock()
	accessService := service.NewAccessService(accessRepo, subjectRepo, emailService, clock)
	attemptService := service.NewAttemptService(attemptRepo, quizRepo, accessService, clock)
	rankingService := service.NewRankingService(attemptRepo, userRepo, cacheRepo, cfg.Ranking.CacheTTL)
	quizService := service.NewQuizService(quizRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := service.NewExpiryReconciler(attemptService, cfg.Reconciler.Interval, cfg.Reconciler.BatchSize)
	go reconciler.Run(ctx)

	// Handlers
	quizHandler := handler.NewQuizHandler(quizService)
	attemptHandler := handler.NewAttemptHandler(attemptService)
	accessHandler := handler.NewAccessHandler(accessService)
	rankingHandler := handler.NewRankingHandler(rankingService, cfg.Ranking.NeighborWindow)

	// Middleware
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationMins)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	// Trusted proxies so c.ClientIP() cannot be spoofed. Behind a load
	// balancer in production, list the balancer's IP here instead of nil.
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		// Quiz catalog
		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("", quizHandler.ListQuizzes)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				quizWithID.GET("", quizHandler.GetQuiz)
				quizWithID.GET("/questions", quizHandler.GetQuizWithQuestions)

				authedQuiz := quizWithID.Group("")
				authedQuiz.Use(authMiddleware.RequireAuth())
				{
					authedQuiz.POST("/attempts",
						rateLimiter.Limit(middleware.DefaultAPIRateLimitConfig()),
						attemptHandler.StartAttempt)
				}
			}
		}

		// Attempt lifecycle
		attempts := api.Group("/attempts")
		attempts.Use(authMiddleware.RequireAuth())
		{
			attempts.GET("", attemptHandler.GetMyAttempts)

			attemptWithID := attempts.Group("/:id")
			attemptWithID.Use(middleware.ExtractUintParam("id", "attemptID"))
			{
				attemptWithID.GET("", attemptHandler.GetAttempt)
				attemptWithID.PUT("/answers", attemptHandler.RecordAnswer)
				attemptWithID.POST("/submit", attemptHandler.SubmitAttempt)
			}
		}

		// Access requests
		subjects := api.Group("/subjects/:id")
		subjects.Use(middleware.ExtractUintParam("id", "subjectID"))
		subjects.Use(authMiddleware.RequireAuth())
		{
			subjects.POST("/access-requests",
				rateLimiter.Limit(middleware.StrictMutationRateLimitConfig()),
				accessHandler.RequestAccess)
		}

		// Rankings
		rankings := api.Group("/rankings")
		rankings.Use(authMiddleware.RequireAuth())
		{
			rankings.GET("", rankingHandler.GetStandings)
			rankings.GET("/me", rankingHandler.GetNeighbors)
		}

		// Admin
		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			admin.GET("/access-requests", accessHandler.ListAccessRequests)
			admin.POST("/access-requests/:id/decision",
				middleware.ExtractUintParam("id", "requestID"),
				accessHandler.DecideAccess)
			admin.GET("/rankings/export", rankingHandler.ExportStandings)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the reconciler before draining connections.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
