package domain

import (
	"time"

	"github.com/google/uuid"
)

// Completion is one row of the append-only challenge_completions ledger.
// PointsEarned snapshots the challenge's point value at completion time;
// rows are never updated or deleted.
type Completion struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	ChallengeID  uuid.UUID `json:"challenge_id"`
	CompletedAt  time.Time `json:"completed_at"`
	PointsEarned int       `json:"points_earned"`
	Note         string    `json:"note,omitempty"`
}

// CompletionDetail is a ledger row joined with its catalog entry, used by
// history and activity-feed reads.
type CompletionDetail struct {
	Completion
	ChallengeTitle    string   `json:"challenge_title"`
	ChallengeCategory Category `json:"challenge_category"`
}
