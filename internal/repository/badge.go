package repository

import (
	"context"
	"fmt"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type badgeRepo struct{}

// NewBadgeRepository returns a pgx-backed BadgeRepository.
func NewBadgeRepository() BadgeRepository {
	return &badgeRepo{}
}

func (r *badgeRepo) ListCatalog(ctx context.Context, db DBTX) ([]domain.Badge, error) {
	rows, err := db.Query(ctx, `
		SELECT badge_type, name, description, icon, requirement, created_at
		FROM badges ORDER BY badge_type`)
	if err != nil {
		return nil, fmt.Errorf("query badge catalog: %w", err)
	}
	defer rows.Close()

	var out []domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.BadgeType, &b.Name, &b.Description, &b.Icon, &b.Requirement, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *badgeRepo) Exists(ctx context.Context, db DBTX, userID uuid.UUID, badgeType string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_badges WHERE user_id = $1 AND badge_type = $2)`,
		userID, badgeType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check badge exists: %w", err)
	}
	return exists, nil
}

func (r *badgeRepo) Insert(ctx context.Context, db DBTX, badge *domain.UserBadge) error {
	_, err := db.Exec(ctx, `
		INSERT INTO user_badges (id, user_id, badge_type, earned_at, is_new)
		VALUES ($1, $2, $3, $4, $5)`,
		badge.ID, badge.UserID, badge.BadgeType, badge.EarnedAt, badge.IsNew)
	if err != nil {
		return fmt.Errorf("insert user badge: %w", err)
	}
	return nil
}

func (r *badgeRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.UserBadge, error) {
	rows, err := db.Query(ctx, `
		SELECT id, user_id, badge_type, earned_at, is_new
		FROM user_badges WHERE user_id = $1
		ORDER BY earned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user badges: %w", err)
	}
	return collectUserBadges(rows)
}

func (r *badgeRepo) ListNew(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.UserBadge, error) {
	rows, err := db.Query(ctx, `
		SELECT id, user_id, badge_type, earned_at, is_new
		FROM user_badges WHERE user_id = $1 AND is_new
		ORDER BY earned_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query new badges: %w", err)
	}
	return collectUserBadges(rows)
}

func (r *badgeRepo) MarkAllSeen(ctx context.Context, db DBTX, userID uuid.UUID) error {
	_, err := db.Exec(ctx,
		`UPDATE user_badges SET is_new = false WHERE user_id = $1 AND is_new`, userID)
	if err != nil {
		return fmt.Errorf("mark badges seen: %w", err)
	}
	return nil
}

func collectUserBadges(rows pgx.Rows) ([]domain.UserBadge, error) {
	defer rows.Close()
	var out []domain.UserBadge
	for rows.Next() {
		var b domain.UserBadge
		if err := rows.Scan(&b.ID, &b.UserID, &b.BadgeType, &b.EarnedAt, &b.IsNew); err != nil {
			return nil, fmt.Errorf("scan user badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
