package repository

import (
	"context"
	"time"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ChallengeRepository provides read access to the daily_challenges catalog.
type ChallengeRepository interface {
	// FindByID returns a challenge by ID, nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Challenge, error)

	// ListActive returns all active challenges.
	ListActive(ctx context.Context, db DBTX) ([]domain.Challenge, error)

	// ListActiveByCategory returns active challenges of one category.
	ListActiveByCategory(ctx context.Context, db DBTX, category domain.Category) ([]domain.Challenge, error)
}

// CompletionRepository is the append-only challenge_completions ledger.
type CompletionRepository interface {
	// Insert appends a new completion record.
	Insert(ctx context.Context, db DBTX, completion *domain.Completion) error

	// CountForUserOnDate returns the number of completions for the user on
	// the given UTC calendar day.
	CountForUserOnDate(ctx context.Context, db DBTX, userID uuid.UUID, day time.Time) (int, error)

	// ExistsForUserChallengeOnDate reports whether the user already completed
	// the challenge on the given UTC calendar day.
	ExistsForUserChallengeOnDate(ctx context.Context, db DBTX, userID, challengeID uuid.UUID, day time.Time) (bool, error)

	// ChallengeIDsForUserOnDate returns the challenge IDs the user completed
	// on the given UTC calendar day.
	ChallengeIDsForUserOnDate(ctx context.Context, db DBTX, userID uuid.UUID, day time.Time) ([]uuid.UUID, error)

	// ListByUser returns the user's completions with catalog details,
	// ordered by completed_at DESC.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.CompletionDetail, error)

	// RecentGlobal returns the most recent completions across all users,
	// ordered by completed_at DESC.
	RecentGlobal(ctx context.Context, db DBTX, limit int) ([]domain.CompletionDetail, error)

	// CountByUser returns the user's all-time completion count.
	CountByUser(ctx context.Context, db DBTX, userID uuid.UUID) (int64, error)

	// CountBetween returns the user's completion count within [start, end).
	CountBetween(ctx context.Context, db DBTX, userID uuid.UUID, start, end time.Time) (int64, error)

	// CountByCategory returns the user's all-time completion counts per
	// challenge category.
	CountByCategory(ctx context.Context, db DBTX, userID uuid.UUID) (map[domain.Category]int64, error)
}

// ProgressRepository provides access to user_progress.
type ProgressRepository interface {
	// FindByUserID returns the persisted progress snapshot, nil if the user
	// has never completed a challenge.
	FindByUserID(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.UserProgress, error)

	// Upsert writes the snapshot keyed by user_id.
	Upsert(ctx context.Context, db DBTX, progress domain.UserProgress) error

	// TopRanking returns progress rows ordered by
	// (flower_level DESC, total_points DESC).
	TopRanking(ctx context.Context, db DBTX, limit int) ([]domain.UserProgress, error)
}

// BadgeRepository provides access to the badge catalog and user_badges.
type BadgeRepository interface {
	// ListCatalog returns all badge definitions.
	ListCatalog(ctx context.Context, db DBTX) ([]domain.Badge, error)

	// Exists reports whether the user already holds the badge.
	Exists(ctx context.Context, db DBTX, userID uuid.UUID, badgeType string) (bool, error)

	// Insert awards a badge. The UNIQUE(user_id, badge_type) constraint
	// backs the at-most-once invariant.
	Insert(ctx context.Context, db DBTX, badge *domain.UserBadge) error

	// ListByUser returns the user's badges, ordered by earned_at DESC.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.UserBadge, error)

	// ListNew returns the user's unseen badges.
	ListNew(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.UserBadge, error)

	// MarkAllSeen clears the is_new flag on every badge the user holds.
	MarkAllSeen(ctx context.Context, db DBTX, userID uuid.UUID) error
}

// UserRepository provides access to users.
type UserRepository interface {
	// FindByEmail returns a user by email, nil if absent.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.User, error)

	// FindByID returns a user by ID, nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// Create inserts a new user.
	Create(ctx context.Context, db DBTX, user *domain.User) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the
	// state change it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox poller.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps events as published.
	MarkPublished(ctx context.Context, db DBTX, eventIDs []uuid.UUID) error
}
