package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/greenloop/backend/internal/handlers"
	"github.com/greenloop/backend/internal/middleware"
	"github.com/greenloop/backend/internal/queue"
	"github.com/greenloop/backend/internal/services/analytics"
	"github.com/greenloop/backend/internal/services/approval"
	"github.com/greenloop/backend/internal/services/challenges"
	"github.com/greenloop/backend/internal/services/email"
	"github.com/greenloop/backend/internal/services/leaderboard"
	"github.com/greenloop/backend/internal/services/notifications"
	"github.com/greenloop/backend/internal/services/progression"
	"github.com/greenloop/backend/internal/services/rewards"
	"github.com/greenloop/backend/internal/storage"
)

// Dependencies carries everything the route tree needs
type Dependencies struct {
	DB          *gorm.DB
	Queue       queue.QueueInterface
	Store       *storage.LocalStore
	Leaderboard *leaderboard.LeaderboardService
	RateLimiter *middleware.RateLimiter
}

// SetupRoutes wires every handler into the router
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	emailService := email.NewEmailService()
	progressionService := progression.NewProgressionService(deps.DB)
	challengeService := challenges.NewChallengeService(deps.DB)
	notificationService := notifications.NewNotificationService(deps.DB)
	rewardService := rewards.NewRewardService(deps.DB)
	analyticsService := analytics.NewAnalyticsService(deps.DB)
	approvalService := approval.NewApprovalService(deps.DB, deps.Queue, progressionService, challengeService, deps.Leaderboard)

	authHandler := handlers.NewAuthHandler(deps.DB)
	actionHandler := handlers.NewActionHandler(deps.DB, approvalService, deps.Store)
	adminHandler := handlers.NewAdminHandler(deps.DB, approvalService, emailService)
	challengeHandler := handlers.NewChallengeHandler(deps.DB, challengeService)
	rewardHandler := handlers.NewRewardHandler(deps.DB, rewardService)
	teamHandler := handlers.NewTeamHandler(deps.DB)
	profileHandler := handlers.NewProfileHandler(deps.DB, progressionService, deps.Store, emailService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, deps.Leaderboard)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/api/auth")
	auth.Use(deps.RateLimiter.AuthRateLimiterMiddleware())
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/google", authHandler.GoogleAuth)
		auth.POST("/invitations/accept", authHandler.AcceptInvitation)
	}

	api := router.Group("/api")
	api.Use(deps.RateLimiter.IPRateLimiterMiddleware(), middleware.AuthMiddleware())
	{
		actions := api.Group("/actions")
		{
			actions.GET("", actionHandler.ListActions)
			actions.GET("/:id", actionHandler.GetAction)
			actions.POST("", actionHandler.ProposeAction)
			actions.POST("/:id/log", actionHandler.LogCompletion)
			actions.GET("/logs/mine", actionHandler.MyLogs)
		}

		challengeGroup := api.Group("/challenges")
		{
			challengeGroup.GET("", challengeHandler.ListChallenges)
			challengeGroup.GET("/mine", challengeHandler.MyChallenges)
			challengeGroup.GET("/:id", challengeHandler.GetChallenge)
			challengeGroup.POST("", challengeHandler.CreateChallenge)
			challengeGroup.POST("/:id/join", challengeHandler.JoinChallenge)
			challengeGroup.POST("/:id/leave", challengeHandler.LeaveChallenge)
			challengeGroup.GET("/:id/leaderboard", challengeHandler.ChallengeLeaderboard)
		}

		rewardGroup := api.Group("/rewards")
		{
			rewardGroup.GET("/available", rewardHandler.AvailableRewards)
			rewardGroup.GET("/claims", rewardHandler.MyClaims)
			rewardGroup.POST("/:id/claim", rewardHandler.ClaimReward)
		}

		teams := api.Group("/teams")
		{
			teams.GET("", teamHandler.ListTeams)
			teams.GET("/:id", teamHandler.GetTeam)
			teams.POST("", teamHandler.CreateTeam)
			teams.POST("/:id/join", teamHandler.JoinTeam)
			teams.POST("/leave", teamHandler.LeaveTeam)
		}

		profile := api.Group("/profile")
		{
			profile.GET("", profileHandler.GetProfile)
			profile.PUT("", profileHandler.UpdateProfile)
			profile.PUT("/password", profileHandler.UpdatePassword)
			profile.POST("/avatar", profileHandler.UploadAvatar)
			profile.GET("/export", profileHandler.ExportData)
			profile.DELETE("", profileHandler.DeactivateAccount)
		}
		api.GET("/progression", profileHandler.GetProgression)

		notificationGroup := api.Group("/notifications")
		{
			notificationGroup.GET("", notificationHandler.ListNotifications)
			notificationGroup.POST("/:id/read", notificationHandler.MarkRead)
			notificationGroup.POST("/read-all", notificationHandler.MarkAllRead)
		}

		api.GET("/leaderboard", analyticsHandler.CompanyLeaderboard)

		analyticsGroup := api.Group("/analytics")
		{
			analyticsGroup.GET("/summary", analyticsHandler.CompanySummary)
			analyticsGroup.GET("/departments", analyticsHandler.DepartmentRankings)
			analyticsGroup.GET("/categories", analyticsHandler.CategoryBreakdown)
		}
	}

	admin := router.Group("/api/admin")
	admin.Use(deps.RateLimiter.IPRateLimiterMiddleware(), middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/actions/pending", adminHandler.PendingProposals)
		admin.POST("/actions", adminHandler.CreateAction)
		admin.POST("/actions/:id/approve", adminHandler.ApproveProposal)
		admin.POST("/actions/:id/reject", adminHandler.RejectProposal)

		admin.GET("/logs/pending", adminHandler.PendingLogs)
		admin.POST("/logs/:id/approve", adminHandler.ApproveLog)
		admin.POST("/logs/:id/reject", adminHandler.RejectLog)

		admin.POST("/invitations", adminHandler.CreateInvitation)
		admin.GET("/activity", adminHandler.ListActivity)

		admin.GET("/rewards/claims/pending", rewardHandler.PendingClaims)
		admin.POST("/rewards", rewardHandler.CreateReward)
		admin.POST("/rewards/claims/:id/transition", rewardHandler.TransitionClaim)
	}
}
