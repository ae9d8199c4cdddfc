package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/greenloop/backend/internal/queue"
	"github.com/greenloop/backend/internal/services/approval"
	"github.com/greenloop/backend/internal/services/notifications"
	"gorm.io/gorm"
)

// NotificationJob writes queued feed entries to the notifications table
type NotificationJob struct {
	db            *gorm.DB
	notifications *notifications.NotificationService
}

// NewNotificationJob creates a new notification job handler
func NewNotificationJob(db *gorm.DB) *NotificationJob {
	return &NotificationJob{
		db:            db,
		notifications: notifications.NewNotificationService(db),
	}
}

// RegisterNotificationJobHandlers registers the notification fan-out handler
func RegisterNotificationJobHandlers(q queue.QueueInterface, db *gorm.DB) {
	handler := NewNotificationJob(db)
	q.RegisterHandler(queue.JobTypeSendNotification, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return nil, handler.Process(ctx, job)
	})
}

// Process delivers one queued notification
func (j *NotificationJob) Process(ctx context.Context, job queue.Job) error {
	var payload approval.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}

	_, err := j.notifications.Create(payload.UserID, payload.Type, payload.Title, payload.Message, payload.ResourceID)
	return err
}
