package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"github.com/greenloop/backend/internal/services/challenges"
	"gorm.io/gorm"
)

// challengeLeaderboardSize is the page size for challenge standings
const challengeLeaderboardSize = 10

// ChallengeHandler serves challenge lifecycle and standings endpoints
type ChallengeHandler struct {
	db         *gorm.DB
	challenges *challenges.ChallengeService
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(db *gorm.DB, challengeService *challenges.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		db:         db,
		challenges: challengeService,
	}
}

// CreateChallengeRequest is the request body for challenge creation
type CreateChallengeRequest struct {
	Title           string                 `json:"title" binding:"required"`
	Description     string                 `json:"description"`
	ChallengeType   models.ChallengeType   `json:"challenge_type" binding:"required"`
	Category        *models.ActionCategory `json:"category"`
	TargetMetric    models.TargetMetric    `json:"target_metric" binding:"required"`
	TargetValue     float64                `json:"target_value" binding:"required,gt=0"`
	RewardPoints    int                    `json:"reward_points" binding:"min=0"`
	MaxParticipants int                    `json:"max_participants" binding:"min=0"`
	StartDate       time.Time              `json:"start_date" binding:"required"`
	EndDate         time.Time              `json:"end_date" binding:"required"`
}

// CreateChallenge creates a challenge. Regular users may only create
// individual challenges; team and company challenges are admin-only.
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)
	isAdmin := c.GetBool("is_admin")

	var req CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.ChallengeType {
	case models.ChallengeTypeIndividual:
	case models.ChallengeTypeTeam, models.ChallengeTypeCompany:
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can create team or company challenges"})
			return
		}
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unknown challenge type"})
		return
	}

	if req.Category != nil && !validCategory(*req.Category) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unknown action category"})
		return
	}

	challenge, err := h.challenges.Create(challenges.CreateInput{
		Title:           req.Title,
		Description:     req.Description,
		ChallengeType:   req.ChallengeType,
		Category:        req.Category,
		TargetMetric:    req.TargetMetric,
		TargetValue:     req.TargetValue,
		RewardPoints:    req.RewardPoints,
		MaxParticipants: req.MaxParticipants,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		CreatedByID:     userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, challenges.ErrIndividualRewardPoints),
			errors.Is(err, challenges.ErrInvalidDates):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Challenge created", "challenge": challenge})
}

// ListChallenges returns challenges, filterable by derived status
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	status := models.ChallengeStatus(c.Query("status"))

	list, err := h.challenges.List(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch challenges"})
		return
	}

	now := time.Now()
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, gin.H{
			"challenge": list[i],
			"status":    list[i].StatusAt(now),
		})
	}

	c.JSON(http.StatusOK, gin.H{"challenges": out})
}

// GetChallenge returns one challenge with its derived status
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge ID"})
		return
	}

	challenge, err := h.challenges.Get(challengeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge": challenge,
		"status":    challenge.StatusAt(time.Now()),
	})
}

// JoinChallenge enrolls the authenticated user, or their team for team
// challenges
func (h *ChallengeHandler) JoinChallenge(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge ID"})
		return
	}

	challenge, err := h.challenges.Get(challengeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		return
	}

	var participant *models.ChallengeParticipant
	if challenge.ChallengeType == models.ChallengeTypeTeam {
		var user models.User
		if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}
		if user.TeamID == nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Join a team before entering a team challenge"})
			return
		}
		participant, err = h.challenges.EnrollTeam(challengeID, *user.TeamID)
	} else {
		participant, err = h.challenges.Join(challengeID, userID)
	}

	if err != nil {
		respondChallengeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Joined challenge", "participant": participant})
}

// LeaveChallenge removes the user's participation
func (h *ChallengeHandler) LeaveChallenge(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge ID"})
		return
	}

	if err := h.challenges.Leave(challengeID, userID); err != nil {
		respondChallengeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left challenge"})
}

// ChallengeLeaderboard returns the top standings plus the requester's own
// rank when they fall outside the page
func (h *ChallengeHandler) ChallengeLeaderboard(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	challengeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid challenge ID"})
		return
	}

	entries, own, err := h.challenges.Leaderboard(challengeID, userID, challengeLeaderboardSize)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}

	resp := gin.H{"leaderboard": entries}
	if own != nil {
		resp["own_rank"] = own
	}
	c.JSON(http.StatusOK, resp)
}

// MyChallenges returns the user's participations with progress
func (h *ChallengeHandler) MyChallenges(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	participations, err := h.challenges.ParticipationsFor(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch participations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"participations": participations})
}

// respondChallengeError maps challenge service errors onto HTTP statuses
func respondChallengeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
	case errors.Is(err, challenges.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, challenges.ErrChallengeFull),
		errors.Is(err, challenges.ErrChallengeEnded),
		errors.Is(err, challenges.ErrNotParticipating):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Challenge operation failed"})
	}
}
