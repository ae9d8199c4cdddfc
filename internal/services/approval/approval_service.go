package approval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"github.com/greenloop/backend/internal/queue"
	"github.com/greenloop/backend/internal/services/challenges"
	"github.com/greenloop/backend/internal/services/leaderboard"
	"github.com/greenloop/backend/internal/services/progression"
	"gorm.io/gorm"
)

var (
	// ErrEmptyReason rejects rejections without an explanation
	ErrEmptyReason = errors.New("a rejection reason is required")

	// ErrAlreadyReviewed is returned when the record left pending state
	// before this review attempt won the conditional update
	ErrAlreadyReviewed = errors.New("record has already been reviewed")

	// ErrNotesRequired is returned when a verification-required action is
	// logged without notes
	ErrNotesRequired = errors.New("notes are required for this action")

	// ErrPhotoRequired enforces the photo-evidence rule
	ErrPhotoRequired = errors.New("photo evidence is required")
)

// NotificationPayload is the queue payload for feed fan-out
type NotificationPayload struct {
	UserID     uuid.UUID               `json:"user_id"`
	Type       models.NotificationType `json:"type"`
	Title      string                  `json:"title"`
	Message    string                  `json:"message"`
	ResourceID *uuid.UUID              `json:"resource_id,omitempty"`
}

// ApprovalService runs the review workflow for user-proposed actions and
// completion logs. Reviews ride conditional updates keyed on the pending
// state, so a double-submitted approval credits exactly once.
type ApprovalService struct {
	db          *gorm.DB
	queue       queue.QueueInterface
	progression *progression.ProgressionService
	challenges  *challenges.ChallengeService
	leaderboard *leaderboard.LeaderboardService
}

// NewApprovalService creates a new approval service
func NewApprovalService(db *gorm.DB, q queue.QueueInterface, prog *progression.ProgressionService, chal *challenges.ChallengeService, lb *leaderboard.LeaderboardService) *ApprovalService {
	return &ApprovalService{
		db:          db,
		queue:       q,
		progression: prog,
		challenges:  chal,
		leaderboard: lb,
	}
}

// LogCompletionInput carries a user's completion log submission
type LogCompletionInput struct {
	UserID   uuid.UUID
	ActionID uuid.UUID
	Notes    string
	PhotoURL string
}

// LogCompletion records that a user performed an action. Validation runs
// before any write: no photo, no log.
func (s *ApprovalService) LogCompletion(in LogCompletionInput) (*models.UserAction, error) {
	if strings.TrimSpace(in.PhotoURL) == "" {
		return nil, ErrPhotoRequired
	}

	var action models.SustainabilityAction
	if err := s.db.First(&action, "id = ? AND is_active = ?", in.ActionID, true).Error; err != nil {
		return nil, err
	}

	if action.VerificationRequired && strings.TrimSpace(in.Notes) == "" {
		return nil, ErrNotesRequired
	}

	userAction := models.UserAction{
		UserID:             in.UserID,
		ActionID:           in.ActionID,
		Notes:              in.Notes,
		PhotoURL:           in.PhotoURL,
		VerificationStatus: models.VerificationStatusPending,
		CompletedAt:        time.Now(),
	}
	if err := s.db.Create(&userAction).Error; err != nil {
		return nil, fmt.Errorf("error creating completion log: %w", err)
	}
	return &userAction, nil
}

// ApproveProposal approves a user-submitted action. The admin supplies the
// point and CO2 values at approval time; the proposal becomes active and one
// already-approved completion log is auto-created crediting the submitter.
func (s *ApprovalService) ApproveProposal(actionID, adminID uuid.UUID, pointsValue int, co2Impact float64) (*models.SustainabilityAction, error) {
	var action models.SustainabilityAction
	if err := s.db.First(&action, "id = ?", actionID).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	result := s.db.Model(&models.SustainabilityAction{}).
		Where("id = ? AND is_user_created = ? AND is_active = ? AND rejection_reason IS NULL", actionID, true, false).
		Updates(map[string]interface{}{
			"is_active":      true,
			"points_value":   pointsValue,
			"co2_impact":     co2Impact,
			"reviewed_by_id": adminID,
			"reviewed_at":    now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("error approving proposal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyReviewed
	}

	action.IsActive = true
	action.PointsValue = pointsValue
	action.CO2Impact = co2Impact
	action.ReviewedByID = &adminID
	action.ReviewedAt = &now

	if action.SubmittedByID != nil {
		autoLog := models.UserAction{
			UserID:             *action.SubmittedByID,
			ActionID:           action.ID,
			Notes:              "Auto-logged on proposal approval",
			PhotoURL:           "",
			PointsEarned:       pointsValue,
			CO2Saved:           co2Impact,
			VerificationStatus: models.VerificationStatusApproved,
			ReviewedByID:       &adminID,
			ReviewedAt:         &now,
			CompletedAt:        now,
		}
		if err := s.db.Create(&autoLog).Error; err != nil {
			return &action, fmt.Errorf("proposal approved but auto-log failed: %w", err)
		}

		if err := s.credit(&autoLog, &action); err != nil {
			log.Printf("approval: partial failure crediting auto-log %s: %v", autoLog.ID, err)
		}

		s.notify(NotificationPayload{
			UserID:     *action.SubmittedByID,
			Type:       models.NotificationTypeProposalApproved,
			Title:      "Your action proposal was approved",
			Message:    fmt.Sprintf("%q is now live and worth %d points.", action.Title, pointsValue),
			ResourceID: &action.ID,
		})
	}

	return &action, nil
}

// RejectProposal permanently rejects a user-submitted action
func (s *ApprovalService) RejectProposal(actionID, adminID uuid.UUID, reason string) (*models.SustainabilityAction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	var action models.SustainabilityAction
	if err := s.db.First(&action, "id = ?", actionID).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	result := s.db.Model(&models.SustainabilityAction{}).
		Where("id = ? AND is_user_created = ? AND is_active = ? AND rejection_reason IS NULL", actionID, true, false).
		Updates(map[string]interface{}{
			"rejection_reason": reason,
			"reviewed_by_id":   adminID,
			"reviewed_at":      now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("error rejecting proposal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyReviewed
	}

	action.RejectionReason = &reason
	action.ReviewedByID = &adminID
	action.ReviewedAt = &now

	if action.SubmittedByID != nil {
		s.notify(NotificationPayload{
			UserID:     *action.SubmittedByID,
			Type:       models.NotificationTypeProposalRejected,
			Title:      "Your action proposal was rejected",
			Message:    reason,
			ResourceID: &action.ID,
		})
	}

	return &action, nil
}

// ApproveLog approves a completion log and credits the user exactly once.
// The conditional update on verification_status='pending' is the guard: a
// concurrent or repeated approval loses the update and returns
// ErrAlreadyReviewed instead of double-crediting.
func (s *ApprovalService) ApproveLog(logID, adminID uuid.UUID) (*models.UserAction, error) {
	var userAction models.UserAction
	if err := s.db.Preload("Action").First(&userAction, "id = ?", logID).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	result := s.db.Model(&models.UserAction{}).
		Where("id = ? AND verification_status = ?", logID, models.VerificationStatusPending).
		Updates(map[string]interface{}{
			"verification_status": models.VerificationStatusApproved,
			"points_earned":       userAction.Action.PointsValue,
			"co2_saved":           userAction.Action.CO2Impact,
			"reviewed_by_id":      adminID,
			"reviewed_at":         now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("error approving log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyReviewed
	}

	userAction.VerificationStatus = models.VerificationStatusApproved
	userAction.PointsEarned = userAction.Action.PointsValue
	userAction.CO2Saved = userAction.Action.CO2Impact
	userAction.ReviewedByID = &adminID
	userAction.ReviewedAt = &now

	if err := s.credit(&userAction, &userAction.Action); err != nil {
		log.Printf("approval: partial failure crediting log %s: %v", userAction.ID, err)
	}

	s.notify(NotificationPayload{
		UserID:     userAction.UserID,
		Type:       models.NotificationTypeActionApproved,
		Title:      "Action approved",
		Message:    fmt.Sprintf("%q earned you %d points.", userAction.Action.Title, userAction.PointsEarned),
		ResourceID: &userAction.ID,
	})

	return &userAction, nil
}

// RejectLog rejects a completion log. User totals are never touched.
func (s *ApprovalService) RejectLog(logID, adminID uuid.UUID, reason string) (*models.UserAction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	var userAction models.UserAction
	if err := s.db.Preload("Action").First(&userAction, "id = ?", logID).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	result := s.db.Model(&models.UserAction{}).
		Where("id = ? AND verification_status = ?", logID, models.VerificationStatusPending).
		Updates(map[string]interface{}{
			"verification_status": models.VerificationStatusRejected,
			"rejection_reason":    reason,
			"reviewed_by_id":      adminID,
			"reviewed_at":         now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("error rejecting log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyReviewed
	}

	userAction.VerificationStatus = models.VerificationStatusRejected
	userAction.RejectionReason = &reason

	s.notify(NotificationPayload{
		UserID:     userAction.UserID,
		Type:       models.NotificationTypeActionRejected,
		Title:      "Action rejected",
		Message:    reason,
		ResourceID: &userAction.ID,
	})

	return &userAction, nil
}

// credit applies an approved log to the user's totals, the team aggregates,
// the leaderboard, and every matching challenge. The review itself has
// already committed; failures here are partial failures the caller logs for
// reconciliation.
func (s *ApprovalService) credit(userAction *models.UserAction, action *models.SustainabilityAction) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userAction.UserID).Error; err != nil {
		return fmt.Errorf("error loading user: %w", err)
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"points":          gorm.Expr("points + ?", userAction.PointsEarned),
			"total_co2_saved": gorm.Expr("total_co2_saved + ?", userAction.CO2Saved),
		}).Error; err != nil {
		return fmt.Errorf("error crediting user: %w", err)
	}

	newPoints := user.Points + userAction.PointsEarned
	newLevel := s.progression.LevelForPoints(newPoints)
	if newLevel != user.Level {
		if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).
			Update("level", newLevel).Error; err != nil {
			return fmt.Errorf("error updating level: %w", err)
		}
		if newLevel > user.Level {
			s.notify(NotificationPayload{
				UserID:  user.ID,
				Type:    models.NotificationTypeLevelUp,
				Title:   fmt.Sprintf("Level %d reached", newLevel),
				Message: fmt.Sprintf("You now have %d points.", newPoints),
			})
		}
	}

	if user.TeamID != nil {
		if err := s.db.Model(&models.Team{}).Where("id = ?", user.TeamID).
			Updates(map[string]interface{}{
				"total_points":    gorm.Expr("total_points + ?", userAction.PointsEarned),
				"total_co2_saved": gorm.Expr("total_co2_saved + ?", userAction.CO2Saved),
			}).Error; err != nil {
			return fmt.Errorf("error crediting team: %w", err)
		}
	}

	s.leaderboard.RecordPoints(context.Background(), user.ID, userAction.PointsEarned)

	completions, err := s.challenges.RecordApproval(userAction, action, user.TeamID)
	if err != nil {
		return fmt.Errorf("error recording challenge progress: %w", err)
	}
	for _, completion := range completions {
		s.settleCompletion(completion)
	}

	return nil
}

// settleCompletion awards challenge reward points once per completion and
// tells the participant. Individual challenges never carry reward points,
// so self-created challenges cannot mint anything.
func (s *ApprovalService) settleCompletion(completion challenges.CompletionEvent) {
	reward := completion.Challenge.RewardPoints

	if completion.UserID != nil {
		if reward > 0 {
			if err := s.db.Model(&models.User{}).Where("id = ?", completion.UserID).
				Update("points", gorm.Expr("points + ?", reward)).Error; err != nil {
				log.Printf("approval: failed to award challenge reward to %s: %v", completion.UserID, err)
			} else {
				s.leaderboard.RecordPoints(context.Background(), *completion.UserID, reward)
			}
		}
		s.notify(NotificationPayload{
			UserID:     *completion.UserID,
			Type:       models.NotificationTypeChallengeCompleted,
			Title:      "Challenge completed",
			Message:    fmt.Sprintf("You completed %q.", completion.Challenge.Title),
			ResourceID: &completion.Challenge.ID,
		})
		return
	}

	if completion.TeamID != nil {
		if reward > 0 {
			if err := s.db.Model(&models.Team{}).Where("id = ?", completion.TeamID).
				Update("total_points", gorm.Expr("total_points + ?", reward)).Error; err != nil {
				log.Printf("approval: failed to award challenge reward to team %s: %v", completion.TeamID, err)
			}
		}
		var members []models.TeamMember
		if err := s.db.Where("team_id = ?", completion.TeamID).Find(&members).Error; err != nil {
			log.Printf("approval: failed to load team members for completion fan-out: %v", err)
			return
		}
		for _, member := range members {
			s.notify(NotificationPayload{
				UserID:     member.UserID,
				Type:       models.NotificationTypeChallengeCompleted,
				Title:      "Team challenge completed",
				Message:    fmt.Sprintf("Your team completed %q.", completion.Challenge.Title),
				ResourceID: &completion.Challenge.ID,
			})
		}
	}
}

// notify enqueues a feed entry; delivery rides the job queue so a slow or
// failing insert never blocks the review response
func (s *ApprovalService) notify(payload NotificationPayload) {
	if s.queue == nil {
		return
	}
	if _, err := s.queue.EnqueueJob(queue.JobTypeSendNotification, payload); err != nil {
		log.Printf("approval: failed to enqueue notification for %s: %v", payload.UserID, err)
	}
}

// PendingProposals lists user-submitted actions awaiting review
func (s *ApprovalService) PendingProposals() ([]models.SustainabilityAction, error) {
	var actions []models.SustainabilityAction
	err := s.db.Where("is_user_created = ? AND is_active = ? AND rejection_reason IS NULL", true, false).
		Order("created_at ASC").Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("error listing pending proposals: %w", err)
	}
	return actions, nil
}

// PendingLogs lists completion logs awaiting review
func (s *ApprovalService) PendingLogs() ([]models.UserAction, error) {
	var logs []models.UserAction
	err := s.db.Preload("Action").Preload("User").
		Where("verification_status = ?", models.VerificationStatusPending).
		Order("created_at ASC").Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("error listing pending logs: %w", err)
	}
	return logs, nil
}
