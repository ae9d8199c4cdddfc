package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateLevelTables creates the level threshold and reward tables
func CreateLevelTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_level_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS level_thresholds (
					level INTEGER PRIMARY KEY,
					points_required INTEGER NOT NULL UNIQUE,
					title VARCHAR(100),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS level_rewards (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					level INTEGER NOT NULL,
					title VARCHAR(255) NOT NULL,
					description TEXT,
					reward_type VARCHAR(20) NOT NULL,
					is_active BOOLEAN DEFAULT TRUE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_level_rewards_level ON level_rewards(level);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS user_level_rewards (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					user_id UUID NOT NULL REFERENCES users(id),
					reward_id UUID NOT NULL REFERENCES level_rewards(id),
					level INTEGER NOT NULL,
					claim_status VARCHAR(20) NOT NULL DEFAULT 'pending',
					admin_notes TEXT,
					claimed_at TIMESTAMP WITH TIME ZONE NOT NULL,
					resolved_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE,
					UNIQUE(user_id, reward_id)
				);

				CREATE INDEX idx_user_level_rewards_status ON user_level_rewards(claim_status);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS user_level_rewards;
				DROP TABLE IF EXISTS level_rewards;
				DROP TABLE IF EXISTS level_thresholds;
			`).Error
		},
	}
}
