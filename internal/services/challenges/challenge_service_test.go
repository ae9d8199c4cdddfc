package challenges

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
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
		&models.SustainabilityAction{},
		&models.UserAction{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{Email: email, Level: 1, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func activeWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(24 * time.Hour)
}

func TestCreateRejectsIndividualRewardPoints(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	start, end := activeWindow()

	_, err := svc.Create(CreateInput{
		Title:         "Self-serve points",
		ChallengeType: models.ChallengeTypeIndividual,
		TargetMetric:  models.TargetMetricActions,
		TargetValue:   5,
		RewardPoints:  100,
		StartDate:     start,
		EndDate:       end,
		CreatedByID:   creator.ID,
	})
	assert.ErrorIs(t, err, ErrIndividualRewardPoints)
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	start, end := activeWindow()

	_, err := svc.Create(CreateInput{
		Title:         "Backwards",
		ChallengeType: models.ChallengeTypeCompany,
		TargetMetric:  models.TargetMetricActions,
		TargetValue:   5,
		StartDate:     end,
		EndDate:       start,
		CreatedByID:   creator.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidDates)
}

func TestJoinGuards(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	start, end := activeWindow()

	challenge, err := svc.Create(CreateInput{
		Title:           "Small group",
		ChallengeType:   models.ChallengeTypeCompany,
		TargetMetric:    models.TargetMetricActions,
		TargetValue:     5,
		MaxParticipants: 1,
		StartDate:       start,
		EndDate:         end,
		CreatedByID:     creator.ID,
	})
	require.NoError(t, err)

	first := createUser(t, db, "first@example.com")
	second := createUser(t, db, "second@example.com")

	_, err = svc.Join(challenge.ID, first.ID)
	require.NoError(t, err)

	_, err = svc.Join(challenge.ID, first.ID)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = svc.Join(challenge.ID, second.ID)
	assert.ErrorIs(t, err, ErrChallengeFull)
}

func TestJoinEndedChallenge(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	user := createUser(t, db, "late@example.com")

	now := time.Now()
	challenge := models.Challenge{
		Title:         "Over",
		Slug:          "over",
		ChallengeType: models.ChallengeTypeCompany,
		TargetMetric:  models.TargetMetricActions,
		TargetValue:   5,
		StartDate:     now.Add(-48 * time.Hour),
		EndDate:       now.Add(-24 * time.Hour),
		CreatedByID:   creator.ID,
	}
	require.NoError(t, db.Create(&challenge).Error)

	_, err := svc.Join(challenge.ID, user.ID)
	assert.ErrorIs(t, err, ErrChallengeEnded)
}

func TestLeave(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	user := createUser(t, db, "user@example.com")
	start, end := activeWindow()

	challenge, err := svc.Create(CreateInput{
		Title:         "In and out",
		ChallengeType: models.ChallengeTypeCompany,
		TargetMetric:  models.TargetMetricActions,
		TargetValue:   5,
		StartDate:     start,
		EndDate:       end,
		CreatedByID:   creator.ID,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Leave(challenge.ID, user.ID), ErrNotParticipating)

	_, err = svc.Join(challenge.ID, user.ID)
	require.NoError(t, err)
	assert.NoError(t, svc.Leave(challenge.ID, user.ID))
}

func TestRecordApprovalIncrementsByMetric(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	user := createUser(t, db, "user@example.com")
	start, end := activeWindow()

	mkChallenge := func(metric models.TargetMetric, target float64) *models.Challenge {
		c, err := svc.Create(CreateInput{
			Title:         "By " + string(metric),
			ChallengeType: models.ChallengeTypeCompany,
			TargetMetric:  metric,
			TargetValue:   target,
			StartDate:     start,
			EndDate:       end,
			CreatedByID:   creator.ID,
		})
		require.NoError(t, err)
		_, err = svc.Join(c.ID, user.ID)
		require.NoError(t, err)
		return c
	}

	byActions := mkChallenge(models.TargetMetricActions, 10)
	byPoints := mkChallenge(models.TargetMetricPoints, 1000)
	byCO2 := mkChallenge(models.TargetMetricCO2Saved, 100)

	action := models.SustainabilityAction{
		Title: "Cycle", Slug: "cycle", Category: models.ActionCategoryTransport, IsActive: true,
	}
	require.NoError(t, db.Create(&action).Error)

	userAction := models.UserAction{
		UserID: user.ID, ActionID: action.ID, PhotoURL: "p.jpg",
		PointsEarned: 40, CO2Saved: 3.5,
		VerificationStatus: models.VerificationStatusApproved,
		CompletedAt:        time.Now(),
	}
	require.NoError(t, db.Create(&userAction).Error)

	completions, err := svc.RecordApproval(&userAction, &action, nil)
	require.NoError(t, err)
	assert.Empty(t, completions)

	progress := func(challengeID uuid.UUID) float64 {
		var p models.ChallengeParticipant
		require.NoError(t, db.First(&p, "challenge_id = ? AND user_id = ?", challengeID, user.ID).Error)
		return p.CurrentProgress
	}

	assert.Equal(t, 1.0, progress(byActions.ID))
	assert.Equal(t, 40.0, progress(byPoints.ID))
	assert.Equal(t, 3.5, progress(byCO2.ID))
}

func TestRecordApprovalRespectsCategoryFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	user := createUser(t, db, "user@example.com")
	start, end := activeWindow()

	energy := models.ActionCategoryEnergy
	challenge, err := svc.Create(CreateInput{
		Title:         "Energy only",
		ChallengeType: models.ChallengeTypeCompany,
		Category:      &energy,
		TargetMetric:  models.TargetMetricActions,
		TargetValue:   5,
		StartDate:     start,
		EndDate:       end,
		CreatedByID:   creator.ID,
	})
	require.NoError(t, err)
	_, err = svc.Join(challenge.ID, user.ID)
	require.NoError(t, err)

	action := models.SustainabilityAction{
		Title: "Cycle", Slug: "cycle", Category: models.ActionCategoryTransport, IsActive: true,
	}
	require.NoError(t, db.Create(&action).Error)

	userAction := models.UserAction{
		UserID: user.ID, ActionID: action.ID, PhotoURL: "p.jpg",
		PointsEarned: 40, CO2Saved: 3.5,
		VerificationStatus: models.VerificationStatusApproved,
		CompletedAt:        time.Now(),
	}
	require.NoError(t, db.Create(&userAction).Error)

	_, err = svc.RecordApproval(&userAction, &action, nil)
	require.NoError(t, err)

	var p models.ChallengeParticipant
	require.NoError(t, db.First(&p, "challenge_id = ? AND user_id = ?", challenge.ID, user.ID).Error)
	assert.Zero(t, p.CurrentProgress, "transport action must not advance an energy challenge")
}

func TestCompletionFiresOnce(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	user := createUser(t, db, "user@example.com")
	start, end := activeWindow()

	challenge, err := svc.Create(CreateInput{
		Title:         "Two actions",
		ChallengeType: models.ChallengeTypeCompany,
		TargetMetric:  models.TargetMetricActions,
		TargetValue:   2,
		StartDate:     start,
		EndDate:       end,
		CreatedByID:   creator.ID,
	})
	require.NoError(t, err)
	_, err = svc.Join(challenge.ID, user.ID)
	require.NoError(t, err)

	action := models.SustainabilityAction{
		Title: "Cycle", Slug: "cycle", Category: models.ActionCategoryTransport, IsActive: true,
	}
	require.NoError(t, db.Create(&action).Error)

	approve := func() []CompletionEvent {
		userAction := models.UserAction{
			UserID: user.ID, ActionID: action.ID, PhotoURL: "p.jpg",
			PointsEarned: 10, CO2Saved: 1,
			VerificationStatus: models.VerificationStatusApproved,
			CompletedAt:        time.Now(),
		}
		require.NoError(t, db.Create(&userAction).Error)
		completions, err := svc.RecordApproval(&userAction, &action, nil)
		require.NoError(t, err)
		return completions
	}

	assert.Empty(t, approve(), "first action is below the target")
	assert.Len(t, approve(), 1, "second action crosses the target")
	assert.Empty(t, approve(), "further progress past the target never re-fires")
}

func TestLeaderboardOrderingAndOwnRank(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChallengeService(db)
	creator := createUser(t, db, "creator@example.com")
	start, end := activeWindow()

	challenge, err := svc.Create(CreateInput{
		Title:         "Race",
		ChallengeType: models.ChallengeTypeCompany,
		TargetMetric:  models.TargetMetricActions,
		TargetValue:   100,
		StartDate:     start,
		EndDate:       end,
		CreatedByID:   creator.ID,
	})
	require.NoError(t, err)

	joined := start
	var userIDs []uuid.UUID
	for i := 0; i < 5; i++ {
		u := createUser(t, db, string(rune('a'+i))+"@example.com")
		userIDs = append(userIDs, u.ID)
		p := models.ChallengeParticipant{
			ChallengeID:     challenge.ID,
			UserID:          &u.ID,
			CurrentProgress: float64(10 * (5 - i)),
			JoinedAt:        joined.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&p).Error)
	}

	// Tie at the bottom: joined later, so ranks after the existing holder
	tied := createUser(t, db, "tied@example.com")
	p := models.ChallengeParticipant{
		ChallengeID:     challenge.ID,
		UserID:          &tied.ID,
		CurrentProgress: 10,
		JoinedAt:        joined.Add(time.Hour),
	}
	require.NoError(t, db.Create(&p).Error)

	entries, own, err := svc.Leaderboard(challenge.ID, tied.ID, 3)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 50.0, entries[0].CurrentProgress)
	assert.Equal(t, userIDs[0], *entries[0].UserID)

	require.NotNil(t, own, "requester outside the page gets an own-rank entry")
	assert.Equal(t, 6, own.Rank, "ties resolve by earliest join")
}
