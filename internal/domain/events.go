package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventUserRegistered     EventType = "bloom.user.registered"
	EventChallengeCompleted EventType = "bloom.challenge.completed"
	EventBadgeAwarded       EventType = "bloom.badge.awarded"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateUser     AggregateType = "user"
	AggregateProgress AggregateType = "progress"
	AggregateBadge    AggregateType = "badge"
)

// OutboxDraft is the payload written to the event_outbox table.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func newDraft(agg AggregateType, aggID string, typ EventType, payload interface{}) OutboxDraft {
	raw, _ := json.Marshal(payload)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   aggID,
		EventType:     typ,
		PartitionKey:  aggID,
		Payload:       raw,
		OccurredAt:    time.Now().UTC(),
	}
}

// NewUserRegisteredEvent builds the outbox event for a new account.
func NewUserRegisteredEvent(user *User) OutboxDraft {
	return newDraft(AggregateUser, user.ID.String(), EventUserRegistered, map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// NewChallengeCompletedEvent builds the outbox event for a ledger append.
func NewChallengeCompletedEvent(completion *Completion, progress UserProgress) OutboxDraft {
	return newDraft(AggregateProgress, completion.UserID.String(), EventChallengeCompleted, map[string]interface{}{
		"completion_id":  completion.ID,
		"user_id":        completion.UserID,
		"challenge_id":   completion.ChallengeID,
		"points_earned":  completion.PointsEarned,
		"total_points":   progress.TotalPoints,
		"flower_level":   progress.FlowerLevel,
		"current_streak": progress.CurrentStreak,
		"completed_at":   completion.CompletedAt,
	})
}

// NewBadgeAwardedEvent builds the outbox event for a badge award.
func NewBadgeAwardedEvent(badge *UserBadge) OutboxDraft {
	return newDraft(AggregateBadge, badge.UserID.String(), EventBadgeAwarded, map[string]interface{}{
		"user_id":    badge.UserID,
		"badge_type": badge.BadgeType,
		"earned_at":  badge.EarnedAt,
	})
}
