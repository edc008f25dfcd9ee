package gamification

import (
	"context"
	"time"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/bloomgrove/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Engine owns the complete-challenge unit of work:
//  1. Serialize per user (advisory transaction lock)
//  2. Validate against the catalog and the daily ledger
//  3. Apply the progress snapshot, append the ledger record
//  4. Evaluate badge rules against post-append state
//
// Every method runs inside the caller's transaction; a failure at any step
// rolls back the whole unit.
type Engine struct {
	challenges  repository.ChallengeRepository
	completions repository.CompletionRepository
	progress    repository.ProgressRepository
	outbox      repository.OutboxRepository
	badges      *BadgeEngine
	now         func() time.Time
}

// NewEngine creates a gamification engine with the given repositories.
func NewEngine(
	challenges repository.ChallengeRepository,
	completions repository.CompletionRepository,
	progress repository.ProgressRepository,
	outbox repository.OutboxRepository,
	badges *BadgeEngine,
) *Engine {
	return &Engine{
		challenges:  challenges,
		completions: completions,
		progress:    progress,
		outbox:      outbox,
		badges:      badges,
		now:         time.Now,
	}
}

// WithClock overrides the engine's time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CompletionResult is the consolidated outcome of a completion.
type CompletionResult struct {
	Completion *domain.Completion  `json:"completion"`
	Progress   domain.UserProgress `json:"progress"`
	NewBadges  []domain.UserBadge  `json:"new_badges"`
}

// LockUser serializes concurrent completions for one user. An advisory
// transaction lock is used instead of SELECT FOR UPDATE because the
// user_progress row does not exist before the first completion.
func (e *Engine) LockUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, userID.String())
	if err != nil {
		return domain.ErrStorage("lock user", err)
	}
	return nil
}

// CompleteChallenge validates and records a completion for the user. Must be
// called within a transaction, after LockUser.
func (e *Engine) CompleteChallenge(ctx context.Context, tx pgx.Tx, userID, challengeID uuid.UUID, note string) (*CompletionResult, error) {
	challenge, err := e.challenges.FindByID(ctx, tx, challengeID)
	if err != nil {
		return nil, domain.ErrStorage("find challenge", err)
	}
	if challenge == nil || !challenge.Active {
		return nil, domain.ErrNotFound("challenge", challengeID.String())
	}

	now := e.now().UTC()
	today := domain.DateOf(now)

	count, err := e.completions.CountForUserOnDate(ctx, tx, userID, today)
	if err != nil {
		return nil, domain.ErrStorage("count today completions", err)
	}
	if count >= domain.DailyCap {
		return nil, domain.ErrDailyCapExceeded()
	}

	dup, err := e.completions.ExistsForUserChallengeOnDate(ctx, tx, userID, challengeID, today)
	if err != nil {
		return nil, domain.ErrStorage("check duplicate completion", err)
	}
	if dup {
		return nil, domain.ErrAlreadyCompletedToday()
	}

	state, err := e.progress.FindByUserID(ctx, tx, userID)
	if err != nil {
		return nil, domain.ErrStorage("load progress", err)
	}
	if state == nil {
		def := domain.DefaultProgress(userID)
		state = &def
	}
	next := state.ApplyCompletion(challenge.Points, today)
	if err := e.progress.Upsert(ctx, tx, next); err != nil {
		return nil, domain.ErrStorage("save progress", err)
	}

	completion := &domain.Completion{
		ID:           uuid.New(),
		UserID:       userID,
		ChallengeID:  challengeID,
		CompletedAt:  now,
		PointsEarned: challenge.Points,
		Note:         note,
	}
	if err := e.completions.Insert(ctx, tx, completion); err != nil {
		return nil, domain.ErrStorage("append completion", err)
	}

	// Badge rules see the ledger and progress as of after the append.
	newBadges, err := e.badges.Evaluate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewChallengeCompletedEvent(completion, next)); err != nil {
		return nil, domain.ErrStorage("insert completion event", err)
	}
	for i := range newBadges {
		if err := e.outbox.Insert(ctx, tx, domain.NewBadgeAwardedEvent(&newBadges[i])); err != nil {
			return nil, domain.ErrStorage("insert badge event", err)
		}
	}

	return &CompletionResult{Completion: completion, Progress: next, NewBadges: newBadges}, nil
}

// LoadProgress returns the persisted snapshot or the zero-value default.
// The default is never written.
func (e *Engine) LoadProgress(ctx context.Context, db repository.DBTX, userID uuid.UUID) (domain.UserProgress, error) {
	state, err := e.progress.FindByUserID(ctx, db, userID)
	if err != nil {
		return domain.UserProgress{}, domain.ErrStorage("load progress", err)
	}
	if state == nil {
		return domain.DefaultProgress(userID), nil
	}
	return *state, nil
}
