package domain

import (
	"time"

	"github.com/google/uuid"
)

// Badge is a catalog entry from the badges table.
type Badge struct {
	BadgeType   string    `json:"badge_type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Requirement int       `json:"requirement"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserBadge records a single badge award. At most one row exists per
// (user, badge type); IsNew is cleared once the user has seen the award.
type UserBadge struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BadgeType string    `json:"badge_type"`
	EarnedAt  time.Time `json:"earned_at"`
	IsNew     bool      `json:"is_new"`
}

// BadgeFacts are the aggregates badge rules are evaluated against. They must
// be computed fresh, inside the same transaction as the completion they
// follow, never from a cache.
type BadgeFacts struct {
	TotalCompletions int64
	CategoryCounts   map[Category]int64
	CurrentStreak    int
	FlowerLevel      int
}

// BadgeRule pairs a badge type with its award predicate.
type BadgeRule struct {
	BadgeType string
	Met       func(BadgeFacts) bool
}

// DefaultBadgeRules returns the static rule table. It is built once at
// startup and shared; rules are side-effect free.
func DefaultBadgeRules() []BadgeRule {
	rules := []BadgeRule{
		{"FIRST_STEP", func(f BadgeFacts) bool { return f.TotalCompletions >= 1 }},
		{"STREAK_3", func(f BadgeFacts) bool { return f.CurrentStreak >= 3 }},
		{"STREAK_7", func(f BadgeFacts) bool { return f.CurrentStreak >= 7 }},
		{"TOTAL_10", func(f BadgeFacts) bool { return f.TotalCompletions >= 10 }},
		{"TOTAL_30", func(f BadgeFacts) bool { return f.TotalCompletions >= 30 }},
		{"TOTAL_50", func(f BadgeFacts) bool { return f.TotalCompletions >= 50 }},
		{"LEVEL_3", func(f BadgeFacts) bool { return f.FlowerLevel >= 3 }},
		{"LEVEL_5", func(f BadgeFacts) bool { return f.FlowerLevel >= 5 }},
		{"LEVEL_7", func(f BadgeFacts) bool { return f.FlowerLevel >= 7 }},
		{"LEVEL_10", func(f BadgeFacts) bool { return f.FlowerLevel >= 10 }},
	}
	for _, c := range Categories() {
		cat := c
		rules = append(rules, BadgeRule{
			BadgeType: string(cat) + "_10",
			Met:       func(f BadgeFacts) bool { return f.CategoryCounts[cat] >= 10 },
		})
	}
	return rules
}
