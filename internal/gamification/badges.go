package gamification

import (
	"context"
	"time"

	"github.com/bloomgrove/platform/internal/domain"
	"github.com/bloomgrove/platform/internal/repository"
	"github.com/google/uuid"
)

// BadgeEngine evaluates the static rule table against freshly computed
// aggregates and awards each badge at most once per user.
type BadgeEngine struct {
	completions repository.CompletionRepository
	progress    repository.ProgressRepository
	badges      repository.BadgeRepository
	rules       []domain.BadgeRule
	now         func() time.Time
}

// NewBadgeEngine creates a badge engine over the given rule table. The table
// is loaded once at startup and shared, never rebuilt per call.
func NewBadgeEngine(
	completions repository.CompletionRepository,
	progress repository.ProgressRepository,
	badges repository.BadgeRepository,
	rules []domain.BadgeRule,
) *BadgeEngine {
	return &BadgeEngine{
		completions: completions,
		progress:    progress,
		badges:      badges,
		rules:       rules,
		now:         time.Now,
	}
}

// Evaluate awards every badge whose rule holds and that the user does not
// hold yet, returning the newly awarded badges. Aggregates are read from the
// given db handle so that, inside a transaction, rules see the state written
// by the completion being processed. Safe to call repeatedly: the existence
// check makes awarding idempotent.
func (e *BadgeEngine) Evaluate(ctx context.Context, db repository.DBTX, userID uuid.UUID) ([]domain.UserBadge, error) {
	facts, err := e.gatherFacts(ctx, db, userID)
	if err != nil {
		return nil, err
	}

	var awarded []domain.UserBadge
	for _, badgeType := range dueBadges(e.rules, facts) {
		held, err := e.badges.Exists(ctx, db, userID, badgeType)
		if err != nil {
			return nil, domain.ErrStorage("check badge", err)
		}
		if held {
			continue
		}
		badge := domain.UserBadge{
			ID:        uuid.New(),
			UserID:    userID,
			BadgeType: badgeType,
			EarnedAt:  e.now().UTC(),
			IsNew:     true,
		}
		if err := e.badges.Insert(ctx, db, &badge); err != nil {
			return nil, domain.ErrStorage("award badge", err)
		}
		awarded = append(awarded, badge)
	}
	return awarded, nil
}

func (e *BadgeEngine) gatherFacts(ctx context.Context, db repository.DBTX, userID uuid.UUID) (domain.BadgeFacts, error) {
	var facts domain.BadgeFacts

	total, err := e.completions.CountByUser(ctx, db, userID)
	if err != nil {
		return facts, domain.ErrStorage("count completions", err)
	}
	categoryCounts, err := e.completions.CountByCategory(ctx, db, userID)
	if err != nil {
		return facts, domain.ErrStorage("count category completions", err)
	}
	state, err := e.progress.FindByUserID(ctx, db, userID)
	if err != nil {
		return facts, domain.ErrStorage("load progress", err)
	}

	facts.TotalCompletions = total
	facts.CategoryCounts = categoryCounts
	if state != nil {
		facts.CurrentStreak = state.CurrentStreak
		facts.FlowerLevel = state.FlowerLevel
	}
	return facts, nil
}

// dueBadges returns the badge types whose rules hold for the facts, in rule
// table order.
func dueBadges(rules []domain.BadgeRule, facts domain.BadgeFacts) []string {
	var due []string
	for _, rule := range rules {
		if rule.Met(facts) {
			due = append(due, rule.BadgeType)
		}
	}
	return due
}
