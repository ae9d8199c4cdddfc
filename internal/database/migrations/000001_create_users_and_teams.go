package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateUsersAndTeams creates the users, teams and invitations tables
func CreateUsersAndTeams() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_users_and_teams",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

				CREATE TABLE IF NOT EXISTS teams (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					name VARCHAR(255) NOT NULL UNIQUE,
					slug VARCHAR(255) UNIQUE,
					description TEXT,
					department VARCHAR(100),
					total_points INTEGER NOT NULL DEFAULT 0,
					total_co2_saved DOUBLE PRECISION NOT NULL DEFAULT 0,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_teams_department ON teams(department);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					email VARCHAR(255) NOT NULL UNIQUE,
					first_name VARCHAR(100),
					last_name VARCHAR(100),
					password_hash VARCHAR(255),
					department VARCHAR(100),
					job_title VARCHAR(100),
					avatar_url TEXT,
					points INTEGER NOT NULL DEFAULT 0,
					level INTEGER NOT NULL DEFAULT 1,
					total_co2_saved DOUBLE PRECISION NOT NULL DEFAULT 0,
					is_admin BOOLEAN DEFAULT FALSE,
					is_active BOOLEAN DEFAULT TRUE,
					google_id VARCHAR(255),
					team_id UUID REFERENCES teams(id),
					last_login_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_users_email ON users(email);
				CREATE INDEX idx_users_department ON users(department);
				CREATE INDEX idx_users_google_id ON users(google_id);
				CREATE INDEX idx_users_team_id ON users(team_id);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS team_members (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					team_id UUID NOT NULL REFERENCES teams(id),
					user_id UUID NOT NULL REFERENCES users(id),
					role VARCHAR(20) NOT NULL DEFAULT 'member',
					joined_at TIMESTAMP WITH TIME ZONE NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE,
					UNIQUE(team_id, user_id)
				);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS invitations (
					id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
					email VARCHAR(255) NOT NULL,
					first_name VARCHAR(100),
					last_name VARCHAR(100),
					department VARCHAR(100),
					is_admin BOOLEAN DEFAULT FALSE,
					token VARCHAR(255) NOT NULL UNIQUE,
					invited_by_id UUID NOT NULL REFERENCES users(id),
					expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
					accepted_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX idx_invitations_email ON invitations(email);
				CREATE INDEX idx_invitations_token ON invitations(token);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP TABLE IF EXISTS invitations;
				DROP TABLE IF EXISTS team_members;
				DROP TABLE IF EXISTS users;
				DROP TABLE IF EXISTS teams;
			`).Error
		},
	}
}
