package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a daily challenge.
type Category string

const (
	CategoryGratitude  Category = "GRATITUDE"
	CategoryKindness   Category = "KINDNESS"
	CategorySelfCare   Category = "SELF_CARE"
	CategoryCreativity Category = "CREATIVITY"
	CategoryConnection Category = "CONNECTION"
)

// Categories lists every challenge category in display order.
func Categories() []Category {
	return []Category{
		CategoryGratitude,
		CategoryKindness,
		CategorySelfCare,
		CategoryCreativity,
		CategoryConnection,
	}
}

// Difficulty is a coarse effort rating shown alongside a challenge.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Challenge is a catalog entry from daily_challenges. The catalog is
// read-only to the gamification engine; points are snapshotted into the
// completion record at completion time.
type Challenge struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Points      int        `json:"points"`
	Category    Category   `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DailyCap is the maximum number of completions counted per user per
// calendar day.
const DailyCap = 3
