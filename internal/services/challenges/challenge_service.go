package challenges

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/greenloop/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrIndividualRewardPoints rejects the anti-abuse case: a user could
	// otherwise mint points by creating and completing their own challenge.
	ErrIndividualRewardPoints = errors.New("individual challenges cannot carry reward points")

	// ErrInvalidDates is returned when the date window is inverted
	ErrInvalidDates = errors.New("challenge end date must be after its start date")

	// ErrChallengeFull is returned when max_participants has been reached
	ErrChallengeFull = errors.New("challenge has reached its participant limit")

	// ErrAlreadyJoined is returned on duplicate join attempts
	ErrAlreadyJoined = errors.New("already participating in this challenge")

	// ErrNotParticipating is returned when leaving a challenge never joined
	ErrNotParticipating = errors.New("not participating in this challenge")

	// ErrChallengeEnded is returned when joining after the end date
	ErrChallengeEnded = errors.New("challenge has ended")
)

// ChallengeService handles challenge lifecycle and progress tracking
type ChallengeService struct {
	db *gorm.DB
}

// NewChallengeService creates a new challenge service
func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{db: db}
}

// CreateInput carries the fields needed to create a challenge
type CreateInput struct {
	Title           string
	Description     string
	ChallengeType   models.ChallengeType
	Category        *models.ActionCategory
	TargetMetric    models.TargetMetric
	TargetValue     float64
	RewardPoints    int
	MaxParticipants int
	StartDate       time.Time
	EndDate         time.Time
	CreatedByID     uuid.UUID
}

// Create validates and persists a challenge
func (s *ChallengeService) Create(in CreateInput) (*models.Challenge, error) {
	if in.ChallengeType == models.ChallengeTypeIndividual && in.RewardPoints > 0 {
		return nil, ErrIndividualRewardPoints
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, ErrInvalidDates
	}

	challenge := models.Challenge{
		Title:           in.Title,
		Slug:            slug.Make(in.Title) + "-" + uuid.New().String()[:8],
		Description:     in.Description,
		ChallengeType:   in.ChallengeType,
		Category:        in.Category,
		TargetMetric:    in.TargetMetric,
		TargetValue:     in.TargetValue,
		RewardPoints:    in.RewardPoints,
		MaxParticipants: in.MaxParticipants,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		CreatedByID:     in.CreatedByID,
	}

	if err := s.db.Create(&challenge).Error; err != nil {
		return nil, fmt.Errorf("error creating challenge: %w", err)
	}
	return &challenge, nil
}

// Get loads a challenge by ID
func (s *ChallengeService) Get(challengeID uuid.UUID) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.db.First(&challenge, "id = ?", challengeID).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

// List returns challenges, optionally filtered by derived status
func (s *ChallengeService) List(status models.ChallengeStatus) ([]models.Challenge, error) {
	now := time.Now()
	query := s.db.Order("start_date DESC")

	switch status {
	case models.ChallengeStatusActive:
		query = query.Where("start_date <= ? AND end_date >= ?", now, now)
	case models.ChallengeStatusUpcoming:
		query = query.Where("start_date > ?", now)
	case models.ChallengeStatusEnded:
		query = query.Where("end_date < ?", now)
	}

	var challenges []models.Challenge
	if err := query.Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("error listing challenges: %w", err)
	}
	return challenges, nil
}

// Join enrolls a user in an individual or company challenge
func (s *ChallengeService) Join(challengeID, userID uuid.UUID) (*models.ChallengeParticipant, error) {
	challenge, err := s.Get(challengeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if challenge.StatusAt(now) == models.ChallengeStatusEnded {
		return nil, ErrChallengeEnded
	}

	var existing models.ChallengeParticipant
	err = s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyJoined
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking participation: %w", err)
	}

	if challenge.MaxParticipants > 0 {
		var count int64
		if err := s.db.Model(&models.ChallengeParticipant{}).
			Where("challenge_id = ?", challengeID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("error counting participants: %w", err)
		}
		if count >= int64(challenge.MaxParticipants) {
			return nil, ErrChallengeFull
		}
	}

	participant := models.ChallengeParticipant{
		ChallengeID: challengeID,
		UserID:      &userID,
		JoinedAt:    now,
	}
	if err := s.db.Create(&participant).Error; err != nil {
		return nil, fmt.Errorf("error joining challenge: %w", err)
	}
	return &participant, nil
}

// EnrollTeam enrolls a whole team in a team challenge. Members participate
// through the team row; no per-member rows are created.
func (s *ChallengeService) EnrollTeam(challengeID, teamID uuid.UUID) (*models.ChallengeParticipant, error) {
	challenge, err := s.Get(challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.ChallengeType != models.ChallengeTypeTeam {
		return nil, errors.New("challenge does not accept team enrollment")
	}

	now := time.Now()
	if challenge.StatusAt(now) == models.ChallengeStatusEnded {
		return nil, ErrChallengeEnded
	}

	var existing models.ChallengeParticipant
	err = s.db.Where("challenge_id = ? AND team_id = ?", challengeID, teamID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyJoined
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking enrollment: %w", err)
	}

	participant := models.ChallengeParticipant{
		ChallengeID: challengeID,
		TeamID:      &teamID,
		JoinedAt:    now,
	}
	if err := s.db.Create(&participant).Error; err != nil {
		return nil, fmt.Errorf("error enrolling team: %w", err)
	}
	return &participant, nil
}

// Leave removes a user's participation row
func (s *ChallengeService) Leave(challengeID, userID uuid.UUID) error {
	result := s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Delete(&models.ChallengeParticipant{})
	if result.Error != nil {
		return fmt.Errorf("error leaving challenge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotParticipating
	}
	return nil
}

// CompletionEvent reports a participant crossing its challenge target
type CompletionEvent struct {
	Challenge   models.Challenge
	Participant models.ChallengeParticipant
	UserID      *uuid.UUID
	TeamID      *uuid.UUID
}

// RecordApproval advances challenge progress after a completion log is
// approved. Every active challenge the user (or their team) participates in
// whose category matches gets its progress incremented per target metric.
// Completion flips exactly once: the conditional update on completed=false
// is the guard, so replays and further progress past the target never
// re-fire the completion side effects.
func (s *ChallengeService) RecordApproval(userAction *models.UserAction, action *models.SustainabilityAction, teamID *uuid.UUID) ([]CompletionEvent, error) {
	now := time.Now()

	var challenges []models.Challenge
	query := s.db.Where("start_date <= ? AND end_date >= ?", now, now)
	if err := query.Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("error loading active challenges: %w", err)
	}

	var completions []CompletionEvent
	for i := range challenges {
		challenge := challenges[i]
		if challenge.Category != nil && *challenge.Category != action.Category {
			continue
		}

		var participant models.ChallengeParticipant
		var err error
		if challenge.ChallengeType == models.ChallengeTypeTeam {
			if teamID == nil {
				continue
			}
			err = s.db.Where("challenge_id = ? AND team_id = ?", challenge.ID, teamID).First(&participant).Error
		} else {
			err = s.db.Where("challenge_id = ? AND user_id = ?", challenge.ID, userAction.UserID).First(&participant).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return completions, fmt.Errorf("error loading participant: %w", err)
		}

		increment := progressIncrement(challenge.TargetMetric, userAction)
		if increment <= 0 {
			continue
		}

		if err := s.db.Model(&models.ChallengeParticipant{}).
			Where("id = ?", participant.ID).
			Update("current_progress", gorm.Expr("current_progress + ?", increment)).Error; err != nil {
			return completions, fmt.Errorf("error updating progress: %w", err)
		}

		if err := s.db.First(&participant, "id = ?", participant.ID).Error; err != nil {
			return completions, fmt.Errorf("error reloading participant: %w", err)
		}

		if participant.CurrentProgress >= challenge.TargetValue {
			completed, err := s.markCompleted(&participant, now)
			if err != nil {
				return completions, err
			}
			if completed {
				completions = append(completions, CompletionEvent{
					Challenge:   challenge,
					Participant: participant,
					UserID:      participant.UserID,
					TeamID:      participant.TeamID,
				})
			}
		}
	}

	return completions, nil
}

// markCompleted flips the completed flag exactly once. Returns true only
// for the transition that actually won the conditional update.
func (s *ChallengeService) markCompleted(participant *models.ChallengeParticipant, now time.Time) (bool, error) {
	result := s.db.Model(&models.ChallengeParticipant{}).
		Where("id = ? AND completed = ?", participant.ID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("error marking completion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	participant.Completed = true
	participant.CompletedAt = &now
	return true, nil
}

func progressIncrement(metric models.TargetMetric, userAction *models.UserAction) float64 {
	switch metric {
	case models.TargetMetricActions:
		return 1
	case models.TargetMetricPoints:
		return float64(userAction.PointsEarned)
	case models.TargetMetricCO2Saved:
		return userAction.CO2Saved
	default:
		return 0
	}
}

// LeaderboardEntry is one ranked row of a challenge leaderboard
type LeaderboardEntry struct {
	Rank            int        `json:"rank"`
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	TeamID          *uuid.UUID `json:"team_id,omitempty"`
	Name            string     `json:"name"`
	CurrentProgress float64    `json:"current_progress"`
	ProgressPercent float64    `json:"progress_percent"`
	Completed       bool       `json:"completed"`
}

// Leaderboard ranks participants by progress, descending, ties broken by
// earliest join. It returns the top limit entries plus the requesting
// user's own rank computed over the full set when outside the page.
func (s *ChallengeService) Leaderboard(challengeID uuid.UUID, requesterID uuid.UUID, limit int) ([]LeaderboardEntry, *LeaderboardEntry, error) {
	challenge, err := s.Get(challengeID)
	if err != nil {
		return nil, nil, err
	}

	var participants []models.ChallengeParticipant
	if err := s.db.Where("challenge_id = ?", challengeID).
		Order("current_progress DESC, joined_at ASC").
		Find(&participants).Error; err != nil {
		return nil, nil, fmt.Errorf("error loading participants: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(participants))
	var own *LeaderboardEntry
	for i := range participants {
		p := participants[i]
		entry := LeaderboardEntry{
			Rank:            i + 1,
			UserID:          p.UserID,
			TeamID:          p.TeamID,
			CurrentProgress: p.CurrentProgress,
			ProgressPercent: p.ProgressPercent(challenge.TargetValue),
			Completed:       p.Completed,
		}

		if p.UserID != nil {
			var user models.User
			if err := s.db.Select("first_name", "last_name", "email").First(&user, "id = ?", p.UserID).Error; err == nil {
				entry.Name = user.FullName()
			}
			if *p.UserID == requesterID {
				ownCopy := entry
				own = &ownCopy
			}
		} else if p.TeamID != nil {
			var team models.Team
			if err := s.db.Select("name").First(&team, "id = ?", p.TeamID).Error; err == nil {
				entry.Name = team.Name
			}
		}

		if i < limit {
			entries = append(entries, entry)
		}
	}

	if own != nil && own.Rank <= limit {
		own = nil
	}
	return entries, own, nil
}

// ParticipationsFor lists a user's participation rows with their challenges
func (s *ChallengeService) ParticipationsFor(userID uuid.UUID) ([]models.ChallengeParticipant, error) {
	var participants []models.ChallengeParticipant
	if err := s.db.Preload("Challenge").Where("user_id = ?", userID).Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("error loading participations: %w", err)
	}
	return participants, nil
}
