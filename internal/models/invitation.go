package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation pre-provisions an account. The invitee sets a password on
// first login via the emailed token; until then the user row stays inactive.
type Invitation struct {
	Base
	Email       string     `gorm:"type:varchar(255);not null;index" json:"email"`
	FirstName   string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName    string     `gorm:"type:varchar(100)" json:"last_name"`
	Department  string     `gorm:"type:varchar(100)" json:"department"`
	IsAdmin     bool       `gorm:"default:false" json:"is_admin"`
	Token       string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	InvitedByID uuid.UUID  `gorm:"type:uuid;not null" json:"invited_by"`
	InvitedBy   User       `gorm:"foreignKey:InvitedByID" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt  *time.Time `json:"accepted_at"`
}

// Expired reports whether the invitation can no longer be accepted
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
