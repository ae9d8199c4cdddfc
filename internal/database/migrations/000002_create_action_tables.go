package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateActionTables creates the action catalogue and completion log tables
func CreateActionTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_action_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS sustainability_actions (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					title VARCHAR(255) NOT NULL,
					slug VARCHAR(255) UNIQUE,
					description TEXT,
					category VARCHAR(30) DEFAULT 'other',
					points_value INTEGER NOT NULL DEFAULT 0,
					co2_impact DOUBLE PRECISION NOT NULL DEFAULT 0,
					is_active BOOLEAN DEFAULT FALSE,
					is_user_created BOOLEAN DEFAULT FALSE,
					verification_required BOOLEAN DEFAULT FALSE,
					submitted_by_id UUID REFERENCES users(id),
					rejection_reason TEXT,
					reviewed_by_id UUID REFERENCES users(id),
					reviewed_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE,
					CONSTRAINT chk_active_xor_rejected CHECK (NOT (is_active AND rejection_reason IS NOT NULL))
				);

				CREATE INDEX idx_sustainability_actions_category ON sustainability_actions(category);
				CREATE INDEX idx_sustainability_actions_is_active ON sustainability_actions(is_active);
				CREATE INDEX idx_sustainability_actions_submitted_by ON sustainability_actions(submitted_by_id);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS user_actions (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL REFERENCES users(id),
					action_id UUID NOT NULL REFERENCES sustainability_actions(id),
					notes TEXT,
					photo_url TEXT NOT NULL,
					points_earned INTEGER NOT NULL DEFAULT 0,
					co2_saved DOUBLE PRECISION NOT NULL DEFAULT 0,
					verification_status VARCHAR(20) NOT NULL DEFAULT 'pending',
					rejection_reason TEXT,
					reviewed_by_id UUID REFERENCES users(id),
					reviewed_at TIMESTAMP WITH TIME ZONE,
					completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_user_actions_user_id ON user_actions(user_id);
				CREATE INDEX idx_user_actions_action_id ON user_actions(action_id);
				CREATE INDEX idx_user_actions_status ON user_actions(verification_status);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS user_actions;
				DROP TABLE IF EXISTS sustainability_actions;
			`).Error
		},
	}
}
