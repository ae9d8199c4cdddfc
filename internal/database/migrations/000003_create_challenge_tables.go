package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateChallengeTables creates the challenge and participant tables
func CreateChallengeTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_challenge_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS challenges (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					title VARCHAR(255) NOT NULL,
					slug VARCHAR(255) UNIQUE,
					description TEXT,
					challenge_type VARCHAR(20) NOT NULL,
					category VARCHAR(30),
					target_metric VARCHAR(20) NOT NULL,
					target_value DOUBLE PRECISION NOT NULL,
					reward_points INTEGER NOT NULL DEFAULT 0,
					max_participants INTEGER DEFAULT 0,
					start_date TIMESTAMP WITH TIME ZONE NOT NULL,
					end_date TIMESTAMP WITH TIME ZONE NOT NULL,
					created_by_id UUID NOT NULL REFERENCES users(id),
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE,
					CONSTRAINT chk_individual_no_reward CHECK (NOT (challenge_type = 'individual' AND reward_points > 0))
				);

				CREATE INDEX idx_challenges_type ON challenges(challenge_type);
				CREATE INDEX idx_challenges_dates ON challenges(start_date, end_date);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS challenge_participants (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					challenge_id UUID NOT NULL REFERENCES challenges(id),
					user_id UUID REFERENCES users(id),
					team_id UUID REFERENCES teams(id),
					current_progress DOUBLE PRECISION NOT NULL DEFAULT 0,
					completed BOOLEAN NOT NULL DEFAULT FALSE,
					completed_at TIMESTAMP WITH TIME ZONE,
					joined_at TIMESTAMP WITH TIME ZONE NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE,
					UNIQUE(challenge_id, user_id),
					UNIQUE(challenge_id, team_id),
					CONSTRAINT chk_participant_subject CHECK (user_id IS NOT NULL OR team_id IS NOT NULL)
				);

				CREATE INDEX idx_challenge_participants_user ON challenge_participants(user_id);
				CREATE INDEX idx_challenge_participants_team ON challenge_participants(team_id);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS challenge_participants;
				DROP TABLE IF EXISTS challenges;
			`).Error
		},
	}
}
