package models

import (
	"time"

	"github.com/google/uuid"
)

// LevelThreshold maps a level to the points required to reach it.
// points_required is strictly increasing by level.
type LevelThreshold struct {
	Level          int       `gorm:"primaryKey" json:"level"`
	PointsRequired int       `gorm:"not null;uniqueIndex" json:"points_required"`
	Title          string    `gorm:"type:varchar(100)" json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RewardType classifies what a level reward actually is
type RewardType string

const (
	RewardTypePhysical   RewardType = "physical"
	RewardTypeDigital    RewardType = "digital"
	RewardTypeExperience RewardType = "experience"
	RewardTypePrivilege  RewardType = "privilege"
)

// LevelReward is a reward unlocked at a level
type LevelReward struct {
	Base
	Level       int        `gorm:"not null;index" json:"level"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	RewardType  RewardType `gorm:"type:varchar(20);not null" json:"reward_type"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
}

// ClaimStatus tracks manual fulfillment of a reward claim
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusApproved  ClaimStatus = "approved"
	ClaimStatusRejected  ClaimStatus = "rejected"
	ClaimStatusDelivered ClaimStatus = "delivered"
)

// UserLevelReward is a claim on a level reward. Claims are fulfilled by
// hand: rewards may be physical goods, so claiming grants nothing by itself.
// rejected and delivered are terminal.
type UserLevelReward struct {
	Base
	UserID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_reward" json:"user_id"`
	User        User        `gorm:"foreignKey:UserID" json:"-"`
	RewardID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_reward" json:"reward_id"`
	Reward      LevelReward `gorm:"foreignKey:RewardID" json:"-"`
	Level       int         `gorm:"not null" json:"level"`
	ClaimStatus ClaimStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"claim_status"`
	AdminNotes  string      `gorm:"type:text" json:"admin_notes"`
	ClaimedAt   time.Time   `gorm:"not null" json:"claimed_at"`
	ResolvedAt  *time.Time  `json:"resolved_at"`
}

// CanTransitionTo reports whether an admin may move a claim to the target
// status. Transitions are monotonic: pending → approved|rejected,
// approved → delivered.
func (c *UserLevelReward) CanTransitionTo(target ClaimStatus) bool {
	switch c.ClaimStatus {
	case ClaimStatusPending:
		return target == ClaimStatusApproved || target == ClaimStatusRejected
	case ClaimStatusApproved:
		return target == ClaimStatusDelivered
	default:
		return false
	}
}
