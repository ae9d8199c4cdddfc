package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus represents the review state of a submission
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// ActionCategory groups sustainability actions for filtering and challenges
type ActionCategory string

const (
	ActionCategoryEnergy    ActionCategory = "energy"
	ActionCategoryTransport ActionCategory = "transport"
	ActionCategoryWaste     ActionCategory = "waste"
	ActionCategoryWater     ActionCategory = "water"
	ActionCategoryFood      ActionCategory = "food"
	ActionCategoryOther     ActionCategory = "other"
)

// SustainabilityAction is a catalogue entry users can log completions against.
// Admin-authored actions are active immediately; user proposals start inactive
// and become active on approval or carry a rejection reason permanently.
type SustainabilityAction struct {
	Base
	Title                string         `gorm:"type:varchar(255);not null" json:"title"`
	Slug                 string         `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	Description          string         `gorm:"type:text" json:"description"`
	Category             ActionCategory `gorm:"type:varchar(30);index;default:'other'" json:"category"`
	PointsValue          int            `gorm:"default:0;not null" json:"points_value"`
	CO2Impact            float64        `gorm:"default:0;not null" json:"co2_impact"`
	IsActive             bool           `gorm:"default:false;index" json:"is_active"`
	IsUserCreated        bool           `gorm:"default:false" json:"is_user_created"`
	VerificationRequired bool           `gorm:"default:false" json:"verification_required"`
	SubmittedByID        *uuid.UUID     `gorm:"type:uuid;index" json:"submitted_by"`
	SubmittedBy          *User          `gorm:"foreignKey:SubmittedByID" json:"-"`
	RejectionReason      *string        `gorm:"type:text" json:"rejection_reason"`
	ReviewedByID         *uuid.UUID     `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt           *time.Time     `json:"reviewed_at"`
}

// Status derives the review state from the stored columns. An action is
// exactly one of pending, approved or rejected; is_active and
// rejection_reason are mutually exclusive.
func (a *SustainabilityAction) Status() VerificationStatus {
	if a.RejectionReason != nil {
		return VerificationStatusRejected
	}
	if a.IsActive {
		return VerificationStatusApproved
	}
	return VerificationStatusPending
}

// UserAction is a completion log: a user claims to have performed an action,
// with mandatory photo evidence. Once approved or rejected it is immutable.
type UserAction struct {
	Base
	UserID             uuid.UUID            `gorm:"type:uuid;not null;index" json:"user_id"`
	User               User                 `gorm:"foreignKey:UserID" json:"-"`
	ActionID           uuid.UUID            `gorm:"type:uuid;not null;index" json:"action_id"`
	Action             SustainabilityAction `gorm:"foreignKey:ActionID" json:"-"`
	Notes              string               `gorm:"type:text" json:"notes"`
	PhotoURL           string               `gorm:"type:text;not null" json:"photo_url"`
	PointsEarned       int                  `gorm:"default:0;not null" json:"points_earned"`
	CO2Saved           float64              `gorm:"default:0;not null" json:"co2_saved"`
	VerificationStatus VerificationStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"verification_status"`
	RejectionReason    *string              `gorm:"type:text" json:"rejection_reason"`
	ReviewedByID       *uuid.UUID           `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt         *time.Time           `json:"reviewed_at"`
	CompletedAt        time.Time            `gorm:"not null" json:"completed_at"`
}
