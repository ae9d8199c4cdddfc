package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateNotificationAndAuditTables creates the notification feed and the
// admin activity audit log
func CreateNotificationAndAuditTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000005_create_notification_and_audit_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS notifications (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL REFERENCES users(id),
					type VARCHAR(40) NOT NULL,
					title VARCHAR(255) NOT NULL,
					message TEXT,
					resource_id UUID,
					is_read BOOLEAN NOT NULL DEFAULT FALSE,
					read_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_notifications_user_unread ON notifications(user_id, is_read);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS admin_activities (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					admin_id UUID NOT NULL REFERENCES users(id),
					action VARCHAR(100) NOT NULL,
					resource_type VARCHAR(50) NOT NULL,
					resource_id UUID,
					details JSONB,
					ip_address VARCHAR(45),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_admin_activities_admin ON admin_activities(admin_id);
				CREATE INDEX idx_admin_activities_resource ON admin_activities(resource_type, resource_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS admin_activities;
				DROP TABLE IF EXISTS notifications;
			`).Error
		},
	}
}
