package analytics

import (
	"fmt"
	"time"

	"github.com/greenloop/backend/internal/models"
	"gorm.io/gorm"
)

// Summary aggregates company-wide engagement numbers
type Summary struct {
	TotalUsers          int64   `json:"total_users"`
	ActiveUsers         int64   `json:"active_users"`
	TotalActionsLogged  int64   `json:"total_actions_logged"`
	ApprovedActions     int64   `json:"approved_actions"`
	PendingActions      int64   `json:"pending_actions"`
	TotalPointsAwarded  int64   `json:"total_points_awarded"`
	TotalCO2Saved       float64 `json:"total_co2_saved"`
	ActiveChallenges    int64   `json:"active_challenges"`
	ChallengeCompletons int64   `json:"challenge_completions"`
}

// DepartmentRanking is one row of the department leaderboard
type DepartmentRanking struct {
	Rank          int     `json:"rank"`
	Department    string  `json:"department"`
	MemberCount   int64   `json:"member_count"`
	TotalPoints   int64   `json:"total_points"`
	TotalCO2Saved float64 `json:"total_co2_saved"`
}

// AnalyticsService computes read-side aggregations for dashboards
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// CompanySummary computes the dashboard summary
func (s *AnalyticsService) CompanySummary() (*Summary, error) {
	var summary Summary

	if err := s.db.Model(&models.User{}).Count(&summary.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	if err := s.db.Model(&models.User{}).Where("is_active = ?", true).Count(&summary.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("error counting active users: %w", err)
	}
	if err := s.db.Model(&models.UserAction{}).Count(&summary.TotalActionsLogged).Error; err != nil {
		return nil, fmt.Errorf("error counting logs: %w", err)
	}
	if err := s.db.Model(&models.UserAction{}).
		Where("verification_status = ?", models.VerificationStatusApproved).
		Count(&summary.ApprovedActions).Error; err != nil {
		return nil, fmt.Errorf("error counting approved logs: %w", err)
	}
	if err := s.db.Model(&models.UserAction{}).
		Where("verification_status = ?", models.VerificationStatusPending).
		Count(&summary.PendingActions).Error; err != nil {
		return nil, fmt.Errorf("error counting pending logs: %w", err)
	}

	type totals struct {
		Points int64
		CO2    float64
	}
	var t totals
	if err := s.db.Model(&models.UserAction{}).
		Select("COALESCE(SUM(points_earned),0) AS points, COALESCE(SUM(co2_saved),0) AS co2").
		Where("verification_status = ?", models.VerificationStatusApproved).
		Scan(&t).Error; err != nil {
		return nil, fmt.Errorf("error summing awards: %w", err)
	}
	summary.TotalPointsAwarded = t.Points
	summary.TotalCO2Saved = t.CO2

	now := time.Now()
	if err := s.db.Model(&models.Challenge{}).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Count(&summary.ActiveChallenges).Error; err != nil {
		return nil, fmt.Errorf("error counting challenges: %w", err)
	}
	if err := s.db.Model(&models.ChallengeParticipant{}).
		Where("completed = ?", true).
		Count(&summary.ChallengeCompletons).Error; err != nil {
		return nil, fmt.Errorf("error counting completions: %w", err)
	}

	return &summary, nil
}

// DepartmentRankings ranks departments by member points, descending
func (s *AnalyticsService) DepartmentRankings() ([]DepartmentRanking, error) {
	var rows []DepartmentRanking
	err := s.db.Model(&models.User{}).
		Select("department, COUNT(*) AS member_count, COALESCE(SUM(points),0) AS total_points, COALESCE(SUM(total_co2_saved),0) AS total_co2_saved").
		Where("department <> '' AND is_active = ?", true).
		Group("department").
		Order("total_points DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error ranking departments: %w", err)
	}

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// CategoryBreakdown counts approved logs per action category
func (s *AnalyticsService) CategoryBreakdown() (map[string]int64, error) {
	type row struct {
		Category string
		Count    int64
	}
	var rows []row
	err := s.db.Model(&models.UserAction{}).
		Select("sustainability_actions.category AS category, COUNT(*) AS count").
		Joins("JOIN sustainability_actions ON sustainability_actions.id = user_actions.action_id").
		Where("user_actions.verification_status = ?", models.VerificationStatusApproved).
		Group("sustainability_actions.category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error computing category breakdown: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Count
	}
	return out, nil
}
