package models

import (
	"github.com/google/uuid"
)

// AdminActivity records every administrative mutation for audit purposes
type AdminActivity struct {
	Base
	AdminID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"admin_id"`
	Admin        User       `gorm:"foreignKey:AdminID" json:"-"`
	Action       string     `gorm:"type:varchar(100);not null" json:"action"`
	ResourceType string     `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   *uuid.UUID `gorm:"type:uuid" json:"resource_id"`
	Details      JSON       `gorm:"type:jsonb" json:"details"`
	IPAddress    string     `gorm:"type:varchar(45)" json:"ip_address"`
}
