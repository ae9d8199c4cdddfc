package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/services/analytics"
	"github.com/greenloop/backend/internal/services/leaderboard"
)

// companyLeaderboardSize is the page size for the company leaderboard
const companyLeaderboardSize = 10

// AnalyticsHandler serves company-wide metrics and the points leaderboard
type AnalyticsHandler struct {
	analytics   *analytics.AnalyticsService
	leaderboard *leaderboard.LeaderboardService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *analytics.AnalyticsService, leaderboardService *leaderboard.LeaderboardService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:   analyticsService,
		leaderboard: leaderboardService,
	}
}

// CompanySummary returns organization-wide engagement totals
func (h *AnalyticsHandler) CompanySummary(c *gin.Context) {
	summary, err := h.analytics.CompanySummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// DepartmentRankings returns departments ranked by total points
func (h *AnalyticsHandler) DepartmentRankings(c *gin.Context) {
	rankings, err := h.analytics.DepartmentRankings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute rankings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": rankings})
}

// CategoryBreakdown returns approved log counts grouped by action category
func (h *AnalyticsHandler) CategoryBreakdown(c *gin.Context) {
	breakdown, err := h.analytics.CategoryBreakdown()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute breakdown"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": breakdown})
}

// CompanyLeaderboard returns the top users by points with the requester's
// own rank when outside the page
func (h *AnalyticsHandler) CompanyLeaderboard(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	entries, own, err := h.leaderboard.Top(c.Request.Context(), userID, companyLeaderboardSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}

	resp := gin.H{"leaderboard": entries}
	if own != nil {
		resp["own_rank"] = own
	}
	c.JSON(http.StatusOK, resp)
}
