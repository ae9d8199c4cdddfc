package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/greenloop/backend/internal/models"
	"github.com/greenloop/backend/internal/queue"
	"github.com/greenloop/backend/internal/services/progression"
	"gorm.io/gorm"
)

// ReconciliationJob repairs drift between stored user levels and the level
// threshold table. Crediting updates levels inline, but partial failures
// (logged, not compensated) and threshold reconfiguration can leave stale
// values behind.
type ReconciliationJob struct {
	db          *gorm.DB
	progression *progression.ProgressionService
}

// NewReconciliationJob creates a new reconciliation job handler
func NewReconciliationJob(db *gorm.DB) *ReconciliationJob {
	return &ReconciliationJob{
		db:          db,
		progression: progression.NewProgressionService(db),
	}
}

// RegisterReconciliationJobHandlers registers the level sweep handler
func RegisterReconciliationJobHandlers(q queue.QueueInterface, db *gorm.DB) {
	handler := NewReconciliationJob(db)
	q.RegisterHandler(queue.JobTypeReconcileLevels, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return nil, handler.Process(ctx)
	})
}

// Process recomputes every active user's level from the threshold table
func (j *ReconciliationJob) Process(ctx context.Context) error {
	thresholds, err := j.progression.Thresholds()
	if err != nil {
		return fmt.Errorf("failed to load thresholds: %w", err)
	}
	if len(thresholds) == 0 {
		return nil
	}

	var users []models.User
	if err := j.db.Select("id", "points", "level").Where("is_active = ?", true).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	fixed := 0
	for _, user := range users {
		expected := progression.LevelFor(user.Points, thresholds)
		if expected == user.Level {
			continue
		}
		if err := j.db.Model(&models.User{}).Where("id = ?", user.ID).
			Update("level", expected).Error; err != nil {
			log.Printf("reconciliation: failed to fix level for %s: %v", user.ID, err)
			continue
		}
		fixed++
	}

	if fixed > 0 {
		log.Printf("reconciliation: corrected %d stale user levels", fixed)
	}
	return nil
}
