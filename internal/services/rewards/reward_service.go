package rewards

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrLevelNotReached is returned when claiming above the user's level
	ErrLevelNotReached = errors.New("reward level not reached")

	// ErrAlreadyClaimed is returned on a second claim for the same reward
	ErrAlreadyClaimed = errors.New("reward already claimed")

	// ErrInvalidTransition is returned for claim status moves the state
	// machine forbids
	ErrInvalidTransition = errors.New("invalid claim status transition")
)

// RewardService handles level reward eligibility and claims. A claim is a
// request for manual fulfillment, not an automated grant: rewards can be
// physical goods, so admins move claims through the status machine by hand.
type RewardService struct {
	db *gorm.DB
}

// NewRewardService creates a new reward service
func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{db: db}
}

// AvailableReward pairs a reward definition with its claim state for a user
type AvailableReward struct {
	Reward  models.LevelReward `json:"reward"`
	Claimed bool               `json:"claimed"`
}

// AvailableFor returns every active reward at or below the user's level,
// marking the ones already claimed
func (s *RewardService) AvailableFor(user *models.User) ([]AvailableReward, error) {
	var rewards []models.LevelReward
	if err := s.db.Where("level <= ? AND is_active = ?", user.Level, true).
		Order("level ASC").Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("error loading rewards: %w", err)
	}

	var claims []models.UserLevelReward
	if err := s.db.Where("user_id = ?", user.ID).Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("error loading claims: %w", err)
	}
	claimed := make(map[uuid.UUID]bool, len(claims))
	for _, c := range claims {
		claimed[c.RewardID] = true
	}

	out := make([]AvailableReward, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, AvailableReward{Reward: r, Claimed: claimed[r.ID]})
	}
	return out, nil
}

// Claim creates a pending claim for a reward the user's level has unlocked.
// One claim per (user, reward); the unique index backs this up against
// concurrent claims.
func (s *RewardService) Claim(user *models.User, rewardID uuid.UUID) (*models.UserLevelReward, error) {
	var reward models.LevelReward
	if err := s.db.First(&reward, "id = ? AND is_active = ?", rewardID, true).Error; err != nil {
		return nil, err
	}

	if user.Level < reward.Level {
		return nil, ErrLevelNotReached
	}

	var existing models.UserLevelReward
	err := s.db.Where("user_id = ? AND reward_id = ?", user.ID, rewardID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyClaimed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking existing claim: %w", err)
	}

	claim := models.UserLevelReward{
		UserID:      user.ID,
		RewardID:    rewardID,
		Level:       reward.Level,
		ClaimStatus: models.ClaimStatusPending,
		ClaimedAt:   time.Now(),
	}
	if err := s.db.Create(&claim).Error; err != nil {
		return nil, fmt.Errorf("error creating claim: %w", err)
	}
	return &claim, nil
}

// ClaimsFor lists a user's claims, newest first
func (s *RewardService) ClaimsFor(userID uuid.UUID) ([]models.UserLevelReward, error) {
	var claims []models.UserLevelReward
	err := s.db.Preload("Reward").Where("user_id = ?", userID).
		Order("claimed_at DESC").Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("error loading claims: %w", err)
	}
	return claims, nil
}

// PendingClaims lists claims awaiting admin action
func (s *RewardService) PendingClaims() ([]models.UserLevelReward, error) {
	var claims []models.UserLevelReward
	err := s.db.Preload("Reward").Preload("User").
		Where("claim_status IN ?", []models.ClaimStatus{models.ClaimStatusPending, models.ClaimStatusApproved}).
		Order("claimed_at ASC").Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("error loading pending claims: %w", err)
	}
	return claims, nil
}

// Transition moves a claim through the fulfillment state machine. The
// conditional update is keyed on the current status, so concurrent admin
// actions cannot both win.
func (s *RewardService) Transition(claimID uuid.UUID, target models.ClaimStatus, adminNotes string) (*models.UserLevelReward, error) {
	var claim models.UserLevelReward
	if err := s.db.First(&claim, "id = ?", claimID).Error; err != nil {
		return nil, err
	}

	if !claim.CanTransitionTo(target) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	updates := map[string]interface{}{
		"claim_status": target,
		"admin_notes":  adminNotes,
	}
	if target == models.ClaimStatusRejected || target == models.ClaimStatusDelivered {
		updates["resolved_at"] = now
	}

	result := s.db.Model(&models.UserLevelReward{}).
		Where("id = ? AND claim_status = ?", claimID, claim.ClaimStatus).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("error transitioning claim: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	claim.ClaimStatus = target
	claim.AdminNotes = adminNotes
	if target == models.ClaimStatusRejected || target == models.ClaimStatusDelivered {
		claim.ResolvedAt = &now
	}
	return &claim, nil
}
