package progression

import (
	"log"
	"sort"

	"github.com/greenloop/backend/internal/models"
	"gorm.io/gorm"
)

// Fallback heuristic used when the threshold table cannot be loaded:
// one level per 1000 points.
const fallbackPointsPerLevel = 1000

// Progress describes where a user stands within the level ladder
type Progress struct {
	Level        int     `json:"level"`
	LevelTitle   string  `json:"level_title,omitempty"`
	Points       int     `json:"points"`
	PointsToNext int     `json:"points_to_next"`
	Percent      float64 `json:"percent"`
	MaxLevel     bool    `json:"max_level"`
}

// LevelFor returns the highest level whose points_required is at most
// points. Thresholds must be strictly increasing in points_required; they
// are sorted defensively by level before the scan. Points beyond the last
// threshold stay capped at the maximum defined level.
func LevelFor(points int, thresholds []models.LevelThreshold) int {
	if len(thresholds) == 0 {
		return fallbackLevel(points)
	}

	sorted := sortedByLevel(thresholds)

	level := sorted[0].Level
	for _, t := range sorted {
		if t.PointsRequired <= points {
			level = t.Level
		} else {
			break
		}
	}
	return level
}

// ProgressToNext reports how far the user is from the next level. At the
// maximum level it returns (0, 100). Percent is clamped to [0,100] and
// points_to_next never goes negative.
func ProgressToNext(points, level int, thresholds []models.LevelThreshold) (pointsToNext int, percent float64) {
	if len(thresholds) == 0 {
		return fallbackProgress(points)
	}

	sorted := sortedByLevel(thresholds)

	var current, next *models.LevelThreshold
	for i := range sorted {
		if sorted[i].Level == level {
			current = &sorted[i]
			if i+1 < len(sorted) {
				next = &sorted[i+1]
			}
			break
		}
	}

	if current == nil || next == nil {
		return 0, 100
	}

	span := next.PointsRequired - current.PointsRequired
	if span <= 0 {
		return 0, 100
	}

	percent = float64(points-current.PointsRequired) / float64(span) * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	pointsToNext = next.PointsRequired - points
	if pointsToNext < 0 {
		pointsToNext = 0
	}

	return pointsToNext, percent
}

func sortedByLevel(thresholds []models.LevelThreshold) []models.LevelThreshold {
	sorted := make([]models.LevelThreshold, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	return sorted
}

func fallbackLevel(points int) int {
	if points < 0 {
		points = 0
	}
	return points / fallbackPointsPerLevel
}

func fallbackProgress(points int) (int, float64) {
	if points < 0 {
		points = 0
	}
	rem := points % fallbackPointsPerLevel
	return fallbackPointsPerLevel - rem, float64(rem) / 10
}

// ProgressionService resolves user levels against the threshold table
type ProgressionService struct {
	db *gorm.DB
}

// NewProgressionService creates a new progression service
func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{db: db}
}

// Thresholds loads the level ladder ordered by level. Errors are returned
// so callers can decide between failing and degrading.
func (s *ProgressionService) Thresholds() ([]models.LevelThreshold, error) {
	var thresholds []models.LevelThreshold
	if err := s.db.Order("level ASC").Find(&thresholds).Error; err != nil {
		return nil, err
	}
	return thresholds, nil
}

// ProgressFor computes a user's full progression snapshot. If the ladder
// cannot be loaded it degrades to the fixed heuristic rather than failing;
// the page still renders something sensible.
func (s *ProgressionService) ProgressFor(user *models.User) Progress {
	thresholds, err := s.Thresholds()
	if err != nil {
		log.Printf("progression: falling back to heuristic, thresholds unavailable: %v", err)
		thresholds = nil
	}

	level := LevelFor(user.Points, thresholds)
	pointsToNext, percent := ProgressToNext(user.Points, level, thresholds)

	p := Progress{
		Level:        level,
		Points:       user.Points,
		PointsToNext: pointsToNext,
		Percent:      percent,
	}

	for _, t := range thresholds {
		if t.Level == level {
			p.LevelTitle = t.Title
		}
		if t.Level > level {
			return p
		}
	}
	if len(thresholds) > 0 {
		p.MaxLevel = true
		p.PointsToNext = 0
		p.Percent = 100
	}
	return p
}

// LevelForPoints resolves a level for a raw points value, degrading to the
// heuristic when the ladder is unavailable
func (s *ProgressionService) LevelForPoints(points int) int {
	thresholds, err := s.Thresholds()
	if err != nil {
		log.Printf("progression: falling back to heuristic, thresholds unavailable: %v", err)
		return fallbackLevel(points)
	}
	return LevelFor(points, thresholds)
}
