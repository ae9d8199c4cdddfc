package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/greenloop/backend/internal/config"
	"github.com/greenloop/backend/internal/database"
	"github.com/greenloop/backend/internal/database/migrations"
	"github.com/greenloop/backend/internal/jobs"
	"github.com/greenloop/backend/internal/middleware"
	"github.com/greenloop/backend/internal/queue"
	"github.com/greenloop/backend/internal/routes"
	"github.com/greenloop/backend/internal/services/leaderboard"
	"github.com/greenloop/backend/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.LoadConfig()

	// Setup database connection
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs the company leaderboard; the service degrades to DB
	// queries if the connection is down
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	leaderboardService := leaderboard.NewLeaderboardService(db, redisClient)

	store, err := storage.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.PublicBaseURL, cfg.Uploads.MaxSizeBytes)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	// Initialize job queue and background workers
	jobQueue := queue.NewQueue(db)
	jobs.RegisterAllJobHandlers(jobQueue, db, leaderboardService)
	go jobQueue.ProcessJobs()

	scheduler, err := jobs.ScheduleRecurringJobs(jobQueue)
	if err != nil {
		log.Fatalf("Failed to schedule recurring jobs: %v", err)
	}
	defer scheduler.Stop()

	// Initialize router
	router := gin.Default()
	router.Use(middleware.SecureHeadersMiddleware(middleware.DefaultSecureHeadersConfig()))

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	// Uploaded photos and avatars are served from local disk
	router.Static("/uploads", store.BaseDir())

	rateLimiter := middleware.NewRateLimiter(10, 5, 20, 5)
	defer rateLimiter.Stop()

	routes.SetupRoutes(router, routes.Dependencies{
		DB:          db,
		Queue:       jobQueue,
		Store:       store,
		Leaderboard: leaderboardService,
		RateLimiter: rateLimiter,
	})

	fmt.Printf("GreenLoop API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
