package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"github.com/greenloop/backend/internal/services/rewards"
	"github.com/greenloop/backend/internal/utils"
	"gorm.io/gorm"
)

// RewardHandler serves level reward listing, claims and fulfillment
type RewardHandler struct {
	db       *gorm.DB
	rewards  *rewards.RewardService
	activity *utils.ActivityLogger
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(db *gorm.DB, rewardService *rewards.RewardService) *RewardHandler {
	return &RewardHandler{
		db:       db,
		rewards:  rewardService,
		activity: utils.NewActivityLogger(db),
	}
}

// AvailableRewards lists rewards unlocked at or below the user's level
func (h *RewardHandler) AvailableRewards(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	available, err := h.rewards.AvailableFor(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rewards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rewards": available})
}

// ClaimReward files a pending claim on a level reward
func (h *RewardHandler) ClaimReward(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	rewardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reward ID"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	claim, err := h.rewards.Claim(&user, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Reward not found"})
		case errors.Is(err, rewards.ErrLevelNotReached):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, rewards.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to claim reward"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Reward claimed, pending fulfillment", "claim": claim})
}

// MyClaims returns the user's claim history
func (h *RewardHandler) MyClaims(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	claims, err := h.rewards.ClaimsFor(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch claims"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// PendingClaims lists claims awaiting fulfillment (admin)
func (h *RewardHandler) PendingClaims(c *gin.Context) {
	claims, err := h.rewards.PendingClaims()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending claims"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// TransitionClaimRequest moves a claim through its fulfillment states
type TransitionClaimRequest struct {
	Status     models.ClaimStatus `json:"status" binding:"required"`
	AdminNotes string             `json:"admin_notes"`
}

// TransitionClaim advances a claim: pending to approved or rejected,
// approved to delivered. Anything else is rejected as invalid.
func (h *RewardHandler) TransitionClaim(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid claim ID"})
		return
	}

	var req TransitionClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claim, err := h.rewards.Transition(claimID, req.Status, req.AdminNotes)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Claim not found"})
		case errors.Is(err, rewards.ErrInvalidTransition):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update claim"})
		}
		return
	}

	_ = h.activity.Log(adminID, utils.ActivityActionTransition, utils.ResourceTypeRewardClaim, &claim.ID, c.ClientIP(), map[string]interface{}{
		"status": string(req.Status),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Claim updated", "claim": claim})
}

// CreateRewardRequest defines a reward unlocked at a level (admin)
type CreateRewardRequest struct {
	Level       int               `json:"level" binding:"required,min=1"`
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	RewardType  models.RewardType `json:"reward_type" binding:"required"`
}

// CreateReward adds a level reward to the catalogue (admin)
func (h *RewardHandler) CreateReward(c *gin.Context) {
	adminID := c.MustGet("user_id").(uuid.UUID)

	var req CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.RewardType {
	case models.RewardTypePhysical, models.RewardTypeDigital,
		models.RewardTypeExperience, models.RewardTypePrivilege:
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unknown reward type"})
		return
	}

	reward := models.LevelReward{
		Level:       req.Level,
		Title:       req.Title,
		Description: req.Description,
		RewardType:  req.RewardType,
		IsActive:    true,
	}

	if err := h.db.Create(&reward).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reward"})
		return
	}

	_ = h.activity.Log(adminID, utils.ActivityActionCreate, utils.ResourceTypeRewardClaim, &reward.ID, c.ClientIP(), map[string]interface{}{
		"title": req.Title,
		"level": req.Level,
	})

	c.JSON(http.StatusCreated, gin.H{"message": "Reward created", "reward": reward})
}
