package approval

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"github.com/greenloop/backend/internal/services/challenges"
	"github.com/greenloop/backend/internal/services/leaderboard"
	"github.com/greenloop/backend/internal/services/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.SustainabilityAction{},
		&models.UserAction{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
		&models.LevelThreshold{},
		&models.Notification{},
	))

	seed := []models.LevelThreshold{
		{Level: 1, PointsRequired: 0},
		{Level: 2, PointsRequired: 100},
		{Level: 3, PointsRequired: 250},
		{Level: 4, PointsRequired: 500},
	}
	require.NoError(t, db.Create(&seed).Error)

	return db
}

func newTestService(db *gorm.DB) *ApprovalService {
	prog := progression.NewProgressionService(db)
	chal := challenges.NewChallengeService(db)
	lb := leaderboard.NewLeaderboardService(db, nil)
	return NewApprovalService(db, nil, prog, chal, lb)
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Level:     1,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createAction(t *testing.T, db *gorm.DB, points int, co2 float64, verificationRequired bool) *models.SustainabilityAction {
	t.Helper()
	action := models.SustainabilityAction{
		Title:                "Cycle to work",
		Slug:                 "cycle-to-work-" + uuid.New().String()[:8],
		Category:             models.ActionCategoryTransport,
		PointsValue:          points,
		CO2Impact:            co2,
		IsActive:             true,
		VerificationRequired: verificationRequired,
	}
	require.NoError(t, db.Create(&action).Error)
	return &action
}

func TestLogCompletionRequiresPhoto(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	user := createUser(t, db, "rider@example.com")
	action := createAction(t, db, 50, 2.5, false)

	_, err := svc.LogCompletion(LogCompletionInput{
		UserID:   user.ID,
		ActionID: action.ID,
		PhotoURL: "   ",
	})
	assert.ErrorIs(t, err, ErrPhotoRequired)

	var count int64
	db.Model(&models.UserAction{}).Count(&count)
	assert.Zero(t, count, "nothing should be written when validation fails")
}

func TestLogCompletionRequiresNotesWhenVerificationRequired(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	user := createUser(t, db, "rider@example.com")
	action := createAction(t, db, 50, 2.5, true)

	_, err := svc.LogCompletion(LogCompletionInput{
		UserID:   user.ID,
		ActionID: action.ID,
		PhotoURL: "/uploads/action-photos/a.jpg",
	})
	assert.ErrorIs(t, err, ErrNotesRequired)
}

func TestLogCompletionCreatesPendingLog(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	user := createUser(t, db, "rider@example.com")
	action := createAction(t, db, 50, 2.5, false)

	userAction, err := svc.LogCompletion(LogCompletionInput{
		UserID:   user.ID,
		ActionID: action.ID,
		PhotoURL: "/uploads/action-photos/a.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, models.VerificationStatusPending, userAction.VerificationStatus)
	assert.Zero(t, userAction.PointsEarned, "points are assigned at approval, not submission")
}

func TestApproveLogCreditsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, "admin@example.com")
	user := createUser(t, db, "rider@example.com")
	action := createAction(t, db, 50, 2.5, false)

	userAction, err := svc.LogCompletion(LogCompletionInput{
		UserID:   user.ID,
		ActionID: action.ID,
		PhotoURL: "/uploads/action-photos/a.jpg",
	})
	require.NoError(t, err)

	approved, err := svc.ApproveLog(userAction.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusApproved, approved.VerificationStatus)
	assert.Equal(t, 50, approved.PointsEarned)
	assert.Equal(t, 2.5, approved.CO2Saved)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 50, reloaded.Points)
	assert.Equal(t, 2.5, reloaded.TotalCO2Saved)

	// A second approval loses the conditional update and must not credit
	_, err = svc.ApproveLog(userAction.ID, admin.ID)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 50, reloaded.Points, "double approval must not double-credit")
}

func TestApproveLogTriggersLevelUp(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, "admin@example.com")
	user := createUser(t, db, "rider@example.com")
	action := createAction(t, db, 120, 1.0, false)

	userAction, err := svc.LogCompletion(LogCompletionInput{
		UserID:   user.ID,
		ActionID: action.ID,
		PhotoURL: "/uploads/action-photos/a.jpg",
	})
	require.NoError(t, err)

	_, err = svc.ApproveLog(userAction.ID, admin.ID)
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 120, reloaded.Points)
	assert.Equal(t, 2, reloaded.Level)
}

func TestRejectLogRequiresReasonAndNeverCredits(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, "admin@example.com")
	user := createUser(t, db, "rider@example.com")
	action := createAction(t, db, 50, 2.5, false)

	userAction, err := svc.LogCompletion(LogCompletionInput{
		UserID:   user.ID,
		ActionID: action.ID,
		PhotoURL: "/uploads/action-photos/a.jpg",
	})
	require.NoError(t, err)

	_, err = svc.RejectLog(userAction.ID, admin.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyReason)

	rejected, err := svc.RejectLog(userAction.ID, admin.ID, "photo does not show the action")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusRejected, rejected.VerificationStatus)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Zero(t, reloaded.Points)
	assert.Zero(t, reloaded.TotalCO2Saved)

	// A rejected log is immutable: approval after rejection must fail
	_, err = svc.ApproveLog(userAction.ID, admin.ID)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestApproveProposalActivatesAndAutoLogs(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, "admin@example.com")
	submitter := createUser(t, db, "proposer@example.com")

	proposal := models.SustainabilityAction{
		Title:         "Office compost bin",
		Slug:          "office-compost-bin",
		Category:      models.ActionCategoryWaste,
		IsUserCreated: true,
		SubmittedByID: &submitter.ID,
	}
	require.NoError(t, db.Create(&proposal).Error)

	approved, err := svc.ApproveProposal(proposal.ID, admin.ID, 30, 1.2)
	require.NoError(t, err)
	assert.True(t, approved.IsActive)
	assert.Equal(t, 30, approved.PointsValue)
	assert.Equal(t, models.VerificationStatusApproved, approved.Status())

	// One already-approved log credits the submitter
	var autoLog models.UserAction
	require.NoError(t, db.First(&autoLog, "user_id = ? AND action_id = ?", submitter.ID, proposal.ID).Error)
	assert.Equal(t, models.VerificationStatusApproved, autoLog.VerificationStatus)
	assert.Equal(t, 30, autoLog.PointsEarned)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", submitter.ID).Error)
	assert.Equal(t, 30, reloaded.Points)

	_, err = svc.ApproveProposal(proposal.ID, admin.ID, 30, 1.2)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestRejectProposalIsPermanent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, "admin@example.com")
	submitter := createUser(t, db, "proposer@example.com")

	proposal := models.SustainabilityAction{
		Title:         "Questionable idea",
		Slug:          "questionable-idea",
		Category:      models.ActionCategoryOther,
		IsUserCreated: true,
		SubmittedByID: &submitter.ID,
	}
	require.NoError(t, db.Create(&proposal).Error)

	_, err := svc.RejectProposal(proposal.ID, admin.ID, "")
	assert.ErrorIs(t, err, ErrEmptyReason)

	rejected, err := svc.RejectProposal(proposal.ID, admin.ID, "not measurable")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusRejected, rejected.Status())

	// Rejection is terminal
	_, err = svc.ApproveProposal(proposal.ID, admin.ID, 10, 0)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestProposalReviewOnlyTouchesUserCreatedActions(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, "admin@example.com")

	// Admin-authored action that happens to be inactive is not a proposal
	action := models.SustainabilityAction{
		Title:    "Retired carpool scheme",
		Slug:     "retired-carpool-scheme",
		Category: models.ActionCategoryTransport,
		IsActive: false,
	}
	require.NoError(t, db.Create(&action).Error)

	_, err := svc.ApproveProposal(action.ID, admin.ID, 40, 2.0)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = svc.RejectProposal(action.ID, admin.ID, "not a proposal")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	var reloaded models.SustainabilityAction
	require.NoError(t, db.First(&reloaded, "id = ?", action.ID).Error)
	assert.False(t, reloaded.IsActive)
	assert.Nil(t, reloaded.RejectionReason)
}

func TestApprovalAdvancesChallengeAndAwardsOnce(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	admin := createUser(t, db, "admin@example.com")
	user := createUser(t, db, "rider@example.com")
	action := createAction(t, db, 50, 2.5, false)

	now := time.Now()
	challenge := models.Challenge{
		Title:         "One green action",
		Slug:          "one-green-action",
		ChallengeType: models.ChallengeTypeCompany,
		TargetMetric:  models.TargetMetricActions,
		TargetValue:   1,
		RewardPoints:  25,
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(24 * time.Hour),
		CreatedByID:   admin.ID,
	}
	require.NoError(t, db.Create(&challenge).Error)

	participant := models.ChallengeParticipant{
		ChallengeID: challenge.ID,
		UserID:      &user.ID,
		JoinedAt:    now,
	}
	require.NoError(t, db.Create(&participant).Error)

	logOne, err := svc.LogCompletion(LogCompletionInput{
		UserID:   user.ID,
		ActionID: action.ID,
		PhotoURL: "/uploads/action-photos/a.jpg",
	})
	require.NoError(t, err)
	_, err = svc.ApproveLog(logOne.ID, admin.ID)
	require.NoError(t, err)

	var reloadedParticipant models.ChallengeParticipant
	require.NoError(t, db.First(&reloadedParticipant, "id = ?", participant.ID).Error)
	assert.True(t, reloadedParticipant.Completed)
	assert.NotNil(t, reloadedParticipant.CompletedAt)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 75, reloaded.Points, "action points plus the completion reward")

	// Further approvals keep counting progress but never re-fire the reward
	logTwo, err := svc.LogCompletion(LogCompletionInput{
		UserID:   user.ID,
		ActionID: action.ID,
		PhotoURL: "/uploads/action-photos/b.jpg",
	})
	require.NoError(t, err)
	_, err = svc.ApproveLog(logTwo.ID, admin.ID)
	require.NoError(t, err)

	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 125, reloaded.Points, "second approval adds action points only")
}
