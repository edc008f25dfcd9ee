package service

import (
	"context"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/bloomgrove/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BadgeService serves badge reads and the seen flow. Awarding itself happens
// inside the completion unit of work, never here.
type BadgeService struct {
	pool   *pgxpool.Pool
	badges repository.BadgeRepository
}

// NewBadgeService creates a BadgeService.
func NewBadgeService(pool *pgxpool.Pool, badges repository.BadgeRepository) *BadgeService {
	return &BadgeService{pool: pool, badges: badges}
}

// Catalog returns every badge definition.
func (s *BadgeService) Catalog(ctx context.Context) ([]domain.Badge, error) {
	out, err := s.badges.ListCatalog(ctx, s.pool)
	if err != nil {
		return nil, domain.ErrStorage("list badge catalog", err)
	}
	return out, nil
}

// ForUser returns the user's earned badges, most recent first.
func (s *BadgeService) ForUser(ctx context.Context, userID uuid.UUID) ([]domain.UserBadge, error) {
	out, err := s.badges.ListByUser(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrStorage("list user badges", err)
	}
	return out, nil
}

// NewForUser returns the user's unseen badges.
func (s *BadgeService) NewForUser(ctx context.Context, userID uuid.UUID) ([]domain.UserBadge, error) {
	out, err := s.badges.ListNew(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrStorage("list new badges", err)
	}
	return out, nil
}

// MarkSeen clears the new flag on all of the user's badges.
func (s *BadgeService) MarkSeen(ctx context.Context, userID uuid.UUID) error {
	if err := s.badges.MarkAllSeen(ctx, s.pool, userID); err != nil {
		return domain.ErrStorage("mark badges seen", err)
	}
	return nil
}
