package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type completionRepo struct{}

// NewCompletionRepository returns a pgx-backed CompletionRepository.
func NewCompletionRepository() CompletionRepository {
	return &completionRepo{}
}

// dayRange returns the [start, end) bounds of the UTC calendar day of t.
func dayRange(t time.Time) (time.Time, time.Time) {
	start := domain.DateOf(t)
	return start, start.AddDate(0, 0, 1)
}

func (r *completionRepo) Insert(ctx context.Context, db DBTX, c *domain.Completion) error {
	_, err := db.Exec(ctx, `
		INSERT INTO challenge_completions (id, user_id, challenge_id, completed_at, points_earned, note)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.ChallengeID, c.CompletedAt, c.PointsEarned, c.Note)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func (r *completionRepo) CountForUserOnDate(ctx context.Context, db DBTX, userID uuid.UUID, day time.Time) (int, error) {
	start, end := dayRange(day)
	var count int
	err := db.QueryRow(ctx, `
		SELECT count(*) FROM challenge_completions
		WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3`,
		userID, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completions for day: %w", err)
	}
	return count, nil
}

func (r *completionRepo) ExistsForUserChallengeOnDate(ctx context.Context, db DBTX, userID, challengeID uuid.UUID, day time.Time) (bool, error) {
	start, end := dayRange(day)
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM challenge_completions
			WHERE user_id = $1 AND challenge_id = $2 AND completed_at >= $3 AND completed_at < $4
		)`, userID, challengeID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check completion for day: %w", err)
	}
	return exists, nil
}

func (r *completionRepo) ChallengeIDsForUserOnDate(ctx context.Context, db DBTX, userID uuid.UUID, day time.Time) ([]uuid.UUID, error) {
	start, end := dayRange(day)
	rows, err := db.Query(ctx, `
		SELECT challenge_id FROM challenge_completions
		WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query day completions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan challenge id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const completionDetailQuery = `
	SELECT cc.id, cc.user_id, cc.challenge_id, cc.completed_at, cc.points_earned,
	       COALESCE(cc.note, ''), dc.title, dc.category
	FROM challenge_completions cc
	JOIN daily_challenges dc ON dc.id = cc.challenge_id`

func (r *completionRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.CompletionDetail, error) {
	rows, err := db.Query(ctx, completionDetailQuery+`
		WHERE cc.user_id = $1
		ORDER BY cc.completed_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query user completions: %w", err)
	}
	return collectCompletionDetails(rows)
}

func (r *completionRepo) RecentGlobal(ctx context.Context, db DBTX, limit int) ([]domain.CompletionDetail, error) {
	rows, err := db.Query(ctx, completionDetailQuery+`
		ORDER BY cc.completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent completions: %w", err)
	}
	return collectCompletionDetails(rows)
}

func (r *completionRepo) CountByUser(ctx context.Context, db DBTX, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.QueryRow(ctx,
		`SELECT count(*) FROM challenge_completions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return count, nil
}

func (r *completionRepo) CountBetween(ctx context.Context, db DBTX, userID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := db.QueryRow(ctx, `
		SELECT count(*) FROM challenge_completions
		WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3`,
		userID, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completions between: %w", err)
	}
	return count, nil
}

func (r *completionRepo) CountByCategory(ctx context.Context, db DBTX, userID uuid.UUID) (map[domain.Category]int64, error) {
	rows, err := db.Query(ctx, `
		SELECT dc.category, count(*)
		FROM challenge_completions cc
		JOIN daily_challenges dc ON dc.id = cc.challenge_id
		WHERE cc.user_id = $1
		GROUP BY dc.category`, userID)
	if err != nil {
		return nil, fmt.Errorf("count completions by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int64)
	for rows.Next() {
		var category domain.Category
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

func collectCompletionDetails(rows pgx.Rows) ([]domain.CompletionDetail, error) {
	defer rows.Close()
	var out []domain.CompletionDetail
	for rows.Next() {
		var d domain.CompletionDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.ChallengeID, &d.CompletedAt,
			&d.PointsEarned, &d.Note, &d.ChallengeTitle, &d.ChallengeCategory); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
