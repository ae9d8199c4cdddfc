package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorizes feed entries for client rendering
type NotificationType string

const (
	NotificationTypeActionApproved     NotificationType = "action_approved"
	NotificationTypeActionRejected     NotificationType = "action_rejected"
	NotificationTypeProposalApproved   NotificationType = "proposal_approved"
	NotificationTypeProposalRejected   NotificationType = "proposal_rejected"
	NotificationTypeLevelUp            NotificationType = "level_up"
	NotificationTypeChallengeCompleted NotificationType = "challenge_completed"
	NotificationTypeRewardUpdated      NotificationType = "reward_updated"
)

// Notification is one entry in a user's notification feed
type Notification struct {
	Base
	UserID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User       User             `gorm:"foreignKey:UserID" json:"-"`
	Type       NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title      string           `gorm:"type:varchar(255);not null" json:"title"`
	Message    string           `gorm:"type:text" json:"message"`
	ResourceID *uuid.UUID       `gorm:"type:uuid" json:"resource_id"`
	IsRead     bool             `gorm:"default:false;not null;index" json:"is_read"`
	ReadAt     *time.Time       `json:"read_at"`
}
