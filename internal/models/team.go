package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamRole is a member's role within a team
type TeamRole string

const (
	TeamRoleLeader TeamRole = "leader"
	TeamRoleMember TeamRole = "member"
)

// Team groups users for team challenges. The aggregate columns are
// maintained by the approval service as member logs are credited.
type Team struct {
	Base
	Name          string  `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Slug          string  `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	Description   string  `gorm:"type:text" json:"description"`
	Department    string  `gorm:"type:varchar(100);index" json:"department"`
	TotalPoints   int     `gorm:"default:0;not null" json:"total_points"`
	TotalCO2Saved float64 `gorm:"default:0;not null" json:"total_co2_saved"`
}

// TeamMember is a user's membership in a team
type TeamMember struct {
	Base
	TeamID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_user" json:"team_id"`
	Team     Team      `gorm:"foreignKey:TeamID" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_team_user" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Role     TeamRole  `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}
