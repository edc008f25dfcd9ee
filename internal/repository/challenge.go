package repository

import (
	"context"
	"fmt"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type challengeRepo struct{}

// NewChallengeRepository returns a pgx-backed ChallengeRepository.
func NewChallengeRepository() ChallengeRepository {
	return &challengeRepo{}
}

const challengeColumns = `id, title, description, points, category, difficulty, active, created_at`

func (r *challengeRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Challenge, error) {
	row := db.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM daily_challenges WHERE id = $1`, id)
	return scanChallenge(row)
}

func (r *challengeRepo) ListActive(ctx context.Context, db DBTX) ([]domain.Challenge, error) {
	rows, err := db.Query(ctx,
		`SELECT `+challengeColumns+` FROM daily_challenges WHERE active ORDER BY category, title`)
	if err != nil {
		return nil, fmt.Errorf("query active challenges: %w", err)
	}
	return collectChallenges(rows)
}

func (r *challengeRepo) ListActiveByCategory(ctx context.Context, db DBTX, category domain.Category) ([]domain.Challenge, error) {
	rows, err := db.Query(ctx,
		`SELECT `+challengeColumns+` FROM daily_challenges WHERE active AND category = $1 ORDER BY title`,
		string(category))
	if err != nil {
		return nil, fmt.Errorf("query challenges by category: %w", err)
	}
	return collectChallenges(rows)
}

func collectChallenges(rows pgx.Rows) ([]domain.Challenge, error) {
	defer rows.Close()
	var out []domain.Challenge
	for rows.Next() {
		var c domain.Challenge
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Points,
			&c.Category, &c.Difficulty, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanChallenge(row pgx.Row) (*domain.Challenge, error) {
	var c domain.Challenge
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Points,
		&c.Category, &c.Difficulty, &c.Active, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan challenge: %w", err)
	}
	return &c, nil
}
