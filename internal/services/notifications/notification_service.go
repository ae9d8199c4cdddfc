package notifications

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationService manages the per-user notification feed
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Create appends one entry to a user's feed
func (s *NotificationService) Create(userID uuid.UUID, nType models.NotificationType, title, message string, resourceID *uuid.UUID) (*models.Notification, error) {
	notification := models.Notification{
		UserID:     userID,
		Type:       nType,
		Title:      title,
		Message:    message,
		ResourceID: resourceID,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("error creating notification: %w", err)
	}
	return &notification, nil
}

// List returns a user's notifications, newest first
func (s *NotificationService) List(userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications
func (s *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read. Only the owner's rows qualify.
func (s *NotificationService) MarkRead(userID, notificationID uuid.UUID) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return fmt.Errorf("error marking notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification read
func (s *NotificationService) MarkAllRead(userID uuid.UUID) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
