package service

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/bloomgrove/platform/internal/gamification"
	"github.com/bloomgrove/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecommendedCount is how many challenges the daily recommendation returns.
const RecommendedCount = 3

// ChallengeService orchestrates challenge reads and the complete-challenge
// unit of work.
type ChallengeService struct {
	pool        *pgxpool.Pool
	engine      *gamification.Engine
	challenges  repository.ChallengeRepository
	completions repository.CompletionRepository
	progress    repository.ProgressRepository
	logger      *slog.Logger

	// rng drives recommendation shuffling; injected so tests can seed it.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewChallengeService creates a ChallengeService.
func NewChallengeService(
	pool *pgxpool.Pool,
	engine *gamification.Engine,
	challenges repository.ChallengeRepository,
	completions repository.CompletionRepository,
	progress repository.ProgressRepository,
	rng *rand.Rand,
	logger *slog.Logger,
) *ChallengeService {
	return &ChallengeService{
		pool:        pool,
		engine:      engine,
		challenges:  challenges,
		completions: completions,
		progress:    progress,
		rng:         rng,
		logger:      logger,
	}
}

// CompleteChallenge runs the whole completion unit of work in one
// transaction: per-user lock, catalog and ledger validation, progress
// snapshot, ledger append, badge evaluation, outbox events.
func (s *ChallengeService) CompleteChallenge(ctx context.Context, userID, challengeID uuid.UUID, note string) (*gamification.CompletionResult, error) {
	if err := domain.ValidateNote(note); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrStorage("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.engine.LockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	result, err := s.engine.CompleteChallenge(ctx, tx, userID, challengeID, note)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrStorage("commit tx", err)
	}

	s.logger.Info("challenge completed",
		"user_id", userID,
		"challenge_id", challengeID,
		"points", result.Completion.PointsEarned,
		"total_points", result.Progress.TotalPoints,
		"flower_level", result.Progress.FlowerLevel,
		"current_streak", result.Progress.CurrentStreak,
		"new_badges", len(result.NewBadges),
	)
	return result, nil
}

// TodayRecommended returns up to RecommendedCount active challenges the user
// has not completed today, shuffled. Empty once the daily cap is reached.
// The catalog can change between recommendation and completion; the engine
// re-validates at completion time.
func (s *ChallengeService) TodayRecommended(ctx context.Context, userID uuid.UUID) ([]domain.Challenge, error) {
	today := domain.DateOf(time.Now().UTC())

	count, err := s.completions.CountForUserOnDate(ctx, s.pool, userID, today)
	if err != nil {
		return nil, domain.ErrStorage("count today completions", err)
	}
	if count >= domain.DailyCap {
		return []domain.Challenge{}, nil
	}

	completedIDs, err := s.completions.ChallengeIDsForUserOnDate(ctx, s.pool, userID, today)
	if err != nil {
		return nil, domain.ErrStorage("list today completions", err)
	}

	active, err := s.challenges.ListActive(ctx, s.pool)
	if err != nil {
		return nil, domain.ErrStorage("list active challenges", err)
	}

	exclude := make(map[uuid.UUID]bool, len(completedIDs))
	for _, id := range completedIDs {
		exclude[id] = true
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return pickRecommended(active, exclude, RecommendedCount, s.rng), nil
}

// pickRecommended filters out excluded challenges and returns up to n of the
// remainder in shuffled order.
func pickRecommended(challenges []domain.Challenge, exclude map[uuid.UUID]bool, n int, rng *rand.Rand) []domain.Challenge {
	available := make([]domain.Challenge, 0, len(challenges))
	for _, c := range challenges {
		if !exclude[c.ID] {
			available = append(available, c)
		}
	}
	rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	if len(available) > n {
		available = available[:n]
	}
	return available
}

// ByCategory returns the active challenges of one category.
func (s *ChallengeService) ByCategory(ctx context.Context, category domain.Category) ([]domain.Challenge, error) {
	out, err := s.challenges.ListActiveByCategory(ctx, s.pool, category)
	if err != nil {
		return nil, domain.ErrStorage("list challenges by category", err)
	}
	return out, nil
}

// Progress returns the user's aggregate snapshot, zero-valued if the user
// has never completed a challenge.
func (s *ChallengeService) Progress(ctx context.Context, userID uuid.UUID) (domain.UserProgress, error) {
	return s.engine.LoadProgress(ctx, s.pool, userID)
}

// History returns the user's completions, most recent first.
func (s *ChallengeService) History(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CompletionDetail, error) {
	out, err := s.completions.ListByUser(ctx, s.pool, userID, limit)
	if err != nil {
		return nil, domain.ErrStorage("list history", err)
	}
	return out, nil
}

// RecentActivity returns the most recent completions across all users.
func (s *ChallengeService) RecentActivity(ctx context.Context, limit int) ([]domain.CompletionDetail, error) {
	out, err := s.completions.RecentGlobal(ctx, s.pool, limit)
	if err != nil {
		return nil, domain.ErrStorage("list recent activity", err)
	}
	return out, nil
}

// Ranking returns the top progress rows ordered by flower level, then points.
func (s *ChallengeService) Ranking(ctx context.Context, limit int) ([]domain.UserProgress, error) {
	out, err := s.progress.TopRanking(ctx, s.pool, limit)
	if err != nil {
		return nil, domain.ErrStorage("query ranking", err)
	}
	return out, nil
}

// TodayCompletedCount returns how many completions the user has today.
func (s *ChallengeService) TodayCompletedCount(ctx context.Context, userID uuid.UUID) (int, error) {
	today := domain.DateOf(time.Now().UTC())
	count, err := s.completions.CountForUserOnDate(ctx, s.pool, userID, today)
	if err != nil {
		return 0, domain.ErrStorage("count today completions", err)
	}
	return count, nil
}

// CountBetween returns the user's completion count within [start, end).
func (s *ChallengeService) CountBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) (int64, error) {
	count, err := s.completions.CountBetween(ctx, s.pool, userID, start, end)
	if err != nil {
		return 0, domain.ErrStorage("count completions between", err)
	}
	return count, nil
}

// Stats summarizes a user's recent completion activity.
type Stats struct {
	TodayCount int   `json:"today_count"`
	WeekCount  int64 `json:"week_count"`
	MonthCount int64 `json:"month_count"`
	DailyCap   int   `json:"daily_cap"`
}

// UserStats returns today/week/month completion counts for the user.
func (s *ChallengeService) UserStats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	today := domain.DateOf(time.Now().UTC())
	tomorrow := today.AddDate(0, 0, 1)

	todayCount, err := s.TodayCompletedCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	weekCount, err := s.CountBetween(ctx, userID, today.AddDate(0, 0, -6), tomorrow)
	if err != nil {
		return nil, err
	}
	monthCount, err := s.CountBetween(ctx, userID, today.AddDate(0, 0, -29), tomorrow)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TodayCount: todayCount,
		WeekCount:  weekCount,
		MonthCount: monthCount,
		DailyCap:   domain.DailyCap,
	}, nil
}
