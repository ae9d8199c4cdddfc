package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an employee in the system
type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName     string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName      string         `gorm:"type:varchar(100)" json:"last_name"`
	PasswordHash  string         `gorm:"type:varchar(255)" json:"-"`
	Department    string         `gorm:"type:varchar(100);index" json:"department"`
	JobTitle      string         `gorm:"type:varchar(100)" json:"job_title"`
	AvatarURL     string         `gorm:"type:text" json:"avatar_url"`
	Points        int            `gorm:"default:0;not null" json:"points"`
	Level         int            `gorm:"default:1;not null" json:"level"`
	TotalCO2Saved float64        `gorm:"default:0;not null" json:"total_co2_saved"`
	IsAdmin       bool           `gorm:"default:false" json:"is_admin"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	GoogleID      *string        `gorm:"type:varchar(255);index" json:"-"`
	TeamID        *uuid.UUID     `gorm:"type:uuid;index" json:"team_id"`
	LastLoginAt   *time.Time     `json:"last_login_at"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when the database does not
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// FullName returns the user's display name
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return u.FirstName + " " + u.LastName
}
