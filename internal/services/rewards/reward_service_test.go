package rewards

import (
	"path/filepath"
	"testing"

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
		&models.LevelReward{},
		&models.UserLevelReward{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, level int) *models.User {
	t.Helper()
	user := models.User{Email: "user@example.com", Level: level, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createReward(t *testing.T, db *gorm.DB, level int) *models.LevelReward {
	t.Helper()
	reward := models.LevelReward{
		Level:      level,
		Title:      "Reusable bottle",
		RewardType: models.RewardTypePhysical,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&reward).Error)
	return &reward
}

func TestAvailableForFiltersByLevel(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRewardService(db)
	user := createUser(t, db, 2)

	createReward(t, db, 1)
	reachable := createReward(t, db, 2)
	createReward(t, db, 5)

	available, err := svc.AvailableFor(user)
	require.NoError(t, err)
	require.Len(t, available, 2)
	for _, r := range available {
		assert.LessOrEqual(t, r.Reward.Level, user.Level)
		assert.False(t, r.Claimed)
	}

	_, err = svc.Claim(user, reachable.ID)
	require.NoError(t, err)

	available, err = svc.AvailableFor(user)
	require.NoError(t, err)
	claimedCount := 0
	for _, r := range available {
		if r.Claimed {
			claimedCount++
			assert.Equal(t, reachable.ID, r.Reward.ID)
		}
	}
	assert.Equal(t, 1, claimedCount)
}

func TestClaimEligibility(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRewardService(db)
	user := createUser(t, db, 2)
	locked := createReward(t, db, 5)

	_, err := svc.Claim(user, locked.ID)
	assert.ErrorIs(t, err, ErrLevelNotReached)

	unlocked := createReward(t, db, 2)
	claim, err := svc.Claim(user, unlocked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusPending, claim.ClaimStatus)
	assert.Equal(t, 2, claim.Level)

	_, err = svc.Claim(user, unlocked.ID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestTransitionStateMachine(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRewardService(db)
	user := createUser(t, db, 2)
	reward := createReward(t, db, 2)

	claim, err := svc.Claim(user, reward.ID)
	require.NoError(t, err)

	// pending cannot skip straight to delivered
	_, err = svc.Transition(claim.ID, models.ClaimStatusDelivered, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	approved, err := svc.Transition(claim.ID, models.ClaimStatusApproved, "ordering")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusApproved, approved.ClaimStatus)
	assert.Nil(t, approved.ResolvedAt)

	// approved cannot be rejected anymore
	_, err = svc.Transition(claim.ID, models.ClaimStatusRejected, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	delivered, err := svc.Transition(claim.ID, models.ClaimStatusDelivered, "handed over")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusDelivered, delivered.ClaimStatus)
	assert.NotNil(t, delivered.ResolvedAt)

	// delivered is terminal
	_, err = svc.Transition(claim.ID, models.ClaimStatusApproved, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectionIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRewardService(db)
	user := createUser(t, db, 2)
	reward := createReward(t, db, 2)

	claim, err := svc.Claim(user, reward.ID)
	require.NoError(t, err)

	rejected, err := svc.Transition(claim.ID, models.ClaimStatusRejected, "duplicate request")
	require.NoError(t, err)
	assert.Equal(t, models.ClaimStatusRejected, rejected.ClaimStatus)
	assert.NotNil(t, rejected.ResolvedAt)

	_, err = svc.Transition(claim.ID, models.ClaimStatusApproved, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
