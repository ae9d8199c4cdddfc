package progression

import (
	"testing"

	"github.com/greenloop/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func thresholds() []models.LevelThreshold {
	return []models.LevelThreshold{
		{Level: 1, PointsRequired: 0},
		{Level: 2, PointsRequired: 100},
		{Level: 3, PointsRequired: 250},
		{Level: 4, PointsRequired: 500},
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name   string
		points int
		want   int
	}{
		{"zero points", 0, 1},
		{"below first threshold", 99, 1},
		{"exactly at threshold", 100, 2},
		{"between thresholds", 450, 3},
		{"at max threshold", 500, 4},
		{"beyond max threshold", 99999, 4},
		{"negative points stay at floor", -10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFor(tt.points, thresholds()))
		})
	}
}

func TestLevelForIsMonotonic(t *testing.T) {
	prev := 0
	for points := 0; points <= 600; points += 10 {
		level := LevelFor(points, thresholds())
		assert.GreaterOrEqual(t, level, prev, "level dropped at %d points", points)
		prev = level
	}
}

func TestProgressToNext(t *testing.T) {
	// 450 points at level 3: next level needs 500, span 250..500
	toNext, percent := ProgressToNext(450, 3, thresholds())
	assert.Equal(t, 50, toNext)
	assert.InDelta(t, 80.0, percent, 0.001)
}

func TestProgressToNextAtMaxLevel(t *testing.T) {
	toNext, percent := ProgressToNext(800, 4, thresholds())
	assert.Equal(t, 0, toNext)
	assert.InDelta(t, 100.0, percent, 0.001)
}

func TestProgressToNextClamped(t *testing.T) {
	// Stale level with points already past the next threshold
	toNext, percent := ProgressToNext(600, 3, thresholds())
	assert.Equal(t, 0, toNext)
	assert.InDelta(t, 100.0, percent, 0.001)

	// Points below the current threshold clamp percent at zero
	_, percent = ProgressToNext(200, 3, thresholds())
	assert.InDelta(t, 0.0, percent, 0.001)
}

func TestFallbackWhenNoThresholds(t *testing.T) {
	// Degraded mode is one level per 1000 points, integer division
	assert.Equal(t, 0, LevelFor(450, nil))
	assert.Equal(t, 2, LevelFor(2500, nil))
	assert.Equal(t, 0, LevelFor(-10, nil))

	toNext, percent := ProgressToNext(2500, 2, nil)
	assert.Equal(t, 500, toNext)
	assert.InDelta(t, 50.0, percent, 0.001)
}
