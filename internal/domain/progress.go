package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxFlowerLevel caps the display tier derived from total points.
const MaxFlowerLevel = 10

// PointsPerLevel is how many points advance the flower by one level.
const PointsPerLevel = 100

// UserProgress is a user's aggregate gamification state, one row per user in
// user_progress. Instances are value snapshots: Apply* methods return a new
// snapshot and never mutate the receiver, persistence is an explicit upsert.
type UserProgress struct {
	UserID            uuid.UUID  `json:"user_id"`
	TotalPoints       int        `json:"total_points"`
	FlowerLevel       int        `json:"flower_level"`
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastChallengeDate *time.Time `json:"last_challenge_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// DefaultProgress returns the zero-value snapshot for a user with no
// completions. It is never persisted as-is.
func DefaultProgress(userID uuid.UUID) UserProgress {
	return UserProgress{
		UserID:        userID,
		TotalPoints:   0,
		FlowerLevel:   1,
		CurrentStreak: 0,
		LongestStreak: 0,
	}
}

// ComputeFlowerLevel derives the display tier from total points:
// min(totalPoints/100 + 1, 10). Monotonic non-decreasing in totalPoints.
func ComputeFlowerLevel(totalPoints int) int {
	level := totalPoints/PointsPerLevel + 1
	if level > MaxFlowerLevel {
		return MaxFlowerLevel
	}
	return level
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ApplyStreak returns a snapshot with streak fields advanced for a completion
// on the given day. Idempotent for repeat calls on the same day.
func (p UserProgress) ApplyStreak(today time.Time) UserProgress {
	today = DateOf(today)
	switch {
	case p.LastChallengeDate == nil:
		p.CurrentStreak = 1
	case DateOf(*p.LastChallengeDate).AddDate(0, 0, 1).Equal(today):
		p.CurrentStreak++
	case DateOf(*p.LastChallengeDate).Equal(today):
		// same-day repeat, streak unchanged
	default:
		p.CurrentStreak = 1
	}
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	p.LastChallengeDate = &today
	return p
}

// ApplyCompletion returns a snapshot with points, level and streak advanced
// for a completion worth pointsEarned on the given day.
func (p UserProgress) ApplyCompletion(pointsEarned int, today time.Time) UserProgress {
	p.TotalPoints += pointsEarned
	p.FlowerLevel = ComputeFlowerLevel(p.TotalPoints)
	return p.ApplyStreak(today)
}

// FlowerEmoji maps the flower level to its display glyph.
func (p UserProgress) FlowerEmoji() string {
	switch p.FlowerLevel {
	case 2:
		return "🌿"
	case 3:
		return "🍀"
	case 4:
		return "🌾"
	case 5:
		return "🌺"
	case 6:
		return "🌻"
	case 7:
		return "🌷"
	case 8:
		return "🌹"
	case 9:
		return "🌸"
	case 10:
		return "🏵️"
	default:
		return "🌱"
	}
}
