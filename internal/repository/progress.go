package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type progressRepo struct{}

// NewProgressRepository returns a pgx-backed ProgressRepository.
func NewProgressRepository() ProgressRepository {
	return &progressRepo{}
}

const progressColumns = `user_id, total_points, flower_level, current_streak, longest_streak, last_challenge_date, created_at, updated_at`

func (r *progressRepo) FindByUserID(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.UserProgress, error) {
	row := db.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = $1`, userID)
	return scanProgress(row)
}

func (r *progressRepo) Upsert(ctx context.Context, db DBTX, p domain.UserProgress) error {
	_, err := db.Exec(ctx, `
		INSERT INTO user_progress (user_id, total_points, flower_level, current_streak, longest_streak, last_challenge_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			flower_level = EXCLUDED.flower_level,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_challenge_date = EXCLUDED.last_challenge_date,
			updated_at = now()`,
		p.UserID, p.TotalPoints, p.FlowerLevel, p.CurrentStreak, p.LongestStreak, p.LastChallengeDate)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (r *progressRepo) TopRanking(ctx context.Context, db DBTX, limit int) ([]domain.UserProgress, error) {
	rows, err := db.Query(ctx, `
		SELECT `+progressColumns+` FROM user_progress
		ORDER BY flower_level DESC, total_points DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ranking: %w", err)
	}
	defer rows.Close()

	var out []domain.UserProgress
	for rows.Next() {
		p, err := scanProgressRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProgress(row pgx.Row) (*domain.UserProgress, error) {
	p, err := scanProgressRow(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanProgressRow(row pgx.Row) (*domain.UserProgress, error) {
	var p domain.UserProgress
	var lastDate *time.Time
	err := row.Scan(&p.UserID, &p.TotalPoints, &p.FlowerLevel, &p.CurrentStreak,
		&p.LongestStreak, &lastDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	if lastDate != nil {
		d := domain.DateOf(*lastDate)
		p.LastChallengeDate = &d
	}
	return &p, nil
}
