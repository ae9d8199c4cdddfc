package utils

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"gorm.io/gorm"
)

// Admin activity actions
const (
	ActivityActionApprove    = "approve"
	ActivityActionReject     = "reject"
	ActivityActionCreate     = "create"
	ActivityActionUpdate     = "update"
	ActivityActionDelete     = "delete"
	ActivityActionInvite     = "invite"
	ActivityActionTransition = "transition"
	ActivityActionDeactivate = "deactivate"
)

// Admin activity resource types
const (
	ResourceTypeAction      = "sustainability_action"
	ResourceTypeActionLog   = "user_action"
	ResourceTypeChallenge   = "challenge"
	ResourceTypeRewardClaim = "reward_claim"
	ResourceTypeUser        = "user"
	ResourceTypeInvitation  = "invitation"
)

// ActivityLogger records administrative mutations to the admin_activities
// table so every approval, rejection and configuration change is traceable.
type ActivityLogger struct {
	db *gorm.DB
}

// NewActivityLogger creates a new activity logger
func NewActivityLogger(db *gorm.DB) *ActivityLogger {
	return &ActivityLogger{db: db}
}

// Log writes one admin activity record
func (a *ActivityLogger) Log(adminID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, ipAddress string, details map[string]interface{}) error {
	activity := models.AdminActivity{
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.JSON(details),
		IPAddress:    ipAddress,
	}

	if err := a.db.Create(&activity).Error; err != nil {
		return fmt.Errorf("failed to record admin activity: %w", err)
	}
	return nil
}

// RecentForResource returns the latest activity rows touching one resource
func (a *ActivityLogger) RecentForResource(resourceType string, resourceID uuid.UUID, limit int) ([]models.AdminActivity, error) {
	var activities []models.AdminActivity
	err := a.db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").Limit(limit).Find(&activities).Error
	return activities, err
}

// Query returns paginated admin activity, optionally filtered by admin
// and resource type
func (a *ActivityLogger) Query(adminID *uuid.UUID, resourceType string, limit, offset int) ([]models.AdminActivity, int64, error) {
	var activities []models.AdminActivity
	var count int64

	query := a.db.Model(&models.AdminActivity{})
	if adminID != nil {
		query = query.Where("admin_id = ?", adminID)
	}
	if resourceType != "" {
		query = query.Where("resource_type = ?", resourceType)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, count, nil
}
