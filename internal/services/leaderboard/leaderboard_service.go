package leaderboard

import (
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/greenloop/backend/internal/models"
	"gorm.io/gorm"
)

const pointsKey = "leaderboard:points"

// Entry is one ranked row of the company leaderboard
type Entry struct {
	Rank       int       `json:"rank"`
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Points     int       `json:"points"`
	Level      int       `json:"level"`
}

// LeaderboardService ranks users company-wide by points. Rankings live in a
// Redis sorted set refreshed incrementally on crediting and rebuilt on a
// schedule; when Redis is unreachable the database ordering serves instead.
type LeaderboardService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(db *gorm.DB, redisClient *redis.Client) *LeaderboardService {
	return &LeaderboardService{db: db, redis: redisClient}
}

// RecordPoints bumps a user's score after crediting. Failures are logged
// and absorbed: the scheduled rebuild reconverges the set.
func (s *LeaderboardService) RecordPoints(ctx context.Context, userID uuid.UUID, delta int) {
	if s.redis == nil || delta == 0 {
		return
	}
	if err := s.redis.ZIncrBy(ctx, pointsKey, float64(delta), userID.String()).Err(); err != nil {
		log.Printf("leaderboard: failed to record points for %s: %v", userID, err)
	}
}

// Rebuild replaces the sorted set from the users table
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}

	var users []models.User
	if err := s.db.Select("id", "points").Where("is_active = ?", true).Find(&users).Error; err != nil {
		return fmt.Errorf("error loading users for rebuild: %w", err)
	}

	members := make([]*redis.Z, 0, len(users))
	for _, u := range users {
		members = append(members, &redis.Z{Score: float64(u.Points), Member: u.ID.String()})
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, pointsKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, pointsKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error rebuilding leaderboard: %w", err)
	}
	return nil
}

// Top returns the top limit entries plus the requester's own entry when it
// falls outside the page
func (s *LeaderboardService) Top(ctx context.Context, requesterID uuid.UUID, limit int) ([]Entry, *Entry, error) {
	if s.redis != nil {
		entries, own, err := s.topFromRedis(ctx, requesterID, limit)
		if err == nil {
			return entries, own, nil
		}
		log.Printf("leaderboard: redis unavailable, serving from database: %v", err)
	}
	return s.topFromDB(requesterID, limit)
}

func (s *LeaderboardService) topFromRedis(ctx context.Context, requesterID uuid.UUID, limit int) ([]Entry, *Entry, error) {
	zs, err := s.redis.ZRevRangeWithScores(ctx, pointsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, nil, err
	}

	entries := make([]Entry, 0, len(zs))
	requesterListed := false
	for i, z := range zs {
		id, err := uuid.Parse(z.Member.(string))
		if err != nil {
			continue
		}
		entry := Entry{Rank: i + 1, UserID: id, Points: int(z.Score)}
		s.decorate(&entry)
		if id == requesterID {
			requesterListed = true
		}
		entries = append(entries, entry)
	}

	var own *Entry
	if !requesterListed {
		rank, err := s.redis.ZRevRank(ctx, pointsKey, requesterID.String()).Result()
		if err == nil {
			score, _ := s.redis.ZScore(ctx, pointsKey, requesterID.String()).Result()
			own = &Entry{Rank: int(rank) + 1, UserID: requesterID, Points: int(score)}
			s.decorate(own)
		} else if err != redis.Nil {
			return nil, nil, err
		}
	}

	return entries, own, nil
}

func (s *LeaderboardService) topFromDB(requesterID uuid.UUID, limit int) ([]Entry, *Entry, error) {
	var users []models.User
	if err := s.db.Where("is_active = ?", true).
		Order("points DESC, created_at ASC").
		Find(&users).Error; err != nil {
		return nil, nil, fmt.Errorf("error loading leaderboard: %w", err)
	}

	entries := make([]Entry, 0, limit)
	var own *Entry
	for i, u := range users {
		entry := Entry{
			Rank:       i + 1,
			UserID:     u.ID,
			Name:       u.FullName(),
			Department: u.Department,
			Points:     u.Points,
			Level:      u.Level,
		}
		if i < limit {
			entries = append(entries, entry)
		}
		if u.ID == requesterID && i >= limit {
			ownCopy := entry
			own = &ownCopy
		}
	}
	return entries, own, nil
}

func (s *LeaderboardService) decorate(entry *Entry) {
	var user models.User
	if err := s.db.Select("first_name", "last_name", "email", "department", "level").
		First(&user, "id = ?", entry.UserID).Error; err != nil {
		return
	}
	entry.Name = user.FullName()
	entry.Department = user.Department
	entry.Level = user.Level
}
