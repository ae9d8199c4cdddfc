package models

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeType distinguishes who competes in a challenge
type ChallengeType string

const (
	ChallengeTypeIndividual ChallengeType = "individual"
	ChallengeTypeTeam       ChallengeType = "team"
	ChallengeTypeCompany    ChallengeType = "company"
)

// TargetMetric is the quantity a challenge measures progress against
type TargetMetric string

const (
	TargetMetricActions  TargetMetric = "actions"
	TargetMetricPoints   TargetMetric = "points"
	TargetMetricCO2Saved TargetMetric = "co2_saved"
)

// ChallengeStatus is derived from the date window at read time
type ChallengeStatus string

const (
	ChallengeStatusUpcoming ChallengeStatus = "upcoming"
	ChallengeStatusActive   ChallengeStatus = "active"
	ChallengeStatusEnded    ChallengeStatus = "ended"
)

// Challenge is a time-boxed competition toward a target metric
type Challenge struct {
	Base
	Title           string          `gorm:"type:varchar(255);not null" json:"title"`
	Slug            string          `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	Description     string          `gorm:"type:text" json:"description"`
	ChallengeType   ChallengeType   `gorm:"type:varchar(20);not null;index" json:"challenge_type"`
	Category        *ActionCategory `gorm:"type:varchar(30)" json:"category"`
	TargetMetric    TargetMetric    `gorm:"type:varchar(20);not null" json:"target_metric"`
	TargetValue     float64         `gorm:"not null" json:"target_value"`
	RewardPoints    int             `gorm:"default:0;not null" json:"reward_points"`
	MaxParticipants int             `gorm:"default:0" json:"max_participants"`
	StartDate       time.Time       `gorm:"not null;index" json:"start_date"`
	EndDate         time.Time       `gorm:"not null;index" json:"end_date"`
	CreatedByID     uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	CreatedBy       User            `gorm:"foreignKey:CreatedByID" json:"-"`
}

// StatusAt derives the challenge status for the given instant
func (c *Challenge) StatusAt(now time.Time) ChallengeStatus {
	switch {
	case now.Before(c.StartDate):
		return ChallengeStatusUpcoming
	case now.After(c.EndDate):
		return ChallengeStatusEnded
	default:
		return ChallengeStatusActive
	}
}

// ChallengeParticipant tracks one user's (or, through a team enrollment, one
// team's) progress toward a challenge target. One row per (challenge, user)
// or (challenge, team).
type ChallengeParticipant struct {
	Base
	ChallengeID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_challenge_user;uniqueIndex:idx_challenge_team" json:"challenge_id"`
	Challenge       Challenge  `gorm:"foreignKey:ChallengeID" json:"-"`
	UserID          *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_challenge_user;index" json:"user_id"`
	TeamID          *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_challenge_team;index" json:"team_id"`
	CurrentProgress float64    `gorm:"default:0;not null" json:"current_progress"`
	Completed       bool       `gorm:"default:false;not null" json:"completed"`
	CompletedAt     *time.Time `json:"completed_at"`
	JoinedAt        time.Time  `gorm:"not null" json:"joined_at"`
}

// ProgressPercent reports completion as a percentage clamped to [0,100]
func (p *ChallengeParticipant) ProgressPercent(target float64) float64 {
	if target <= 0 {
		return 0
	}
	pct := p.CurrentProgress / target * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
