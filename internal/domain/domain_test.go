package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- Flower Level ---

func TestComputeFlowerLevel(t *testing.T) {
	tests := []struct {
		points int
		level  int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{199, 2},
		{200, 3},
		{450, 5},
		{899, 9},
		{900, 10},
		{950, 10},
		{1000, 10},
		{99999, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, ComputeFlowerLevel(tt.points), "points=%d", tt.points)
	}
}

func TestComputeFlowerLevel_Monotonic(t *testing.T) {
	prev := ComputeFlowerLevel(0)
	for points := 1; points <= 1200; points++ {
		level := ComputeFlowerLevel(points)
		require.GreaterOrEqual(t, level, prev, "level dropped at points=%d", points)
		require.LessOrEqual(t, level, MaxFlowerLevel)
		prev = level
	}
}

// --- Streak ---

func TestApplyStreak_FirstCompletion(t *testing.T) {
	p := DefaultProgress(uuid.New())
	got := p.ApplyStreak(day(2026, 3, 1))

	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.LongestStreak)
	require.NotNil(t, got.LastChallengeDate)
	assert.Equal(t, day(2026, 3, 1), *got.LastChallengeDate)
}

func TestApplyStreak_ConsecutiveDay(t *testing.T) {
	last := day(2026, 3, 1)
	p := UserProgress{CurrentStreak: 4, LongestStreak: 4, LastChallengeDate: &last}

	got := p.ApplyStreak(day(2026, 3, 2))
	assert.Equal(t, 5, got.CurrentStreak)
	assert.Equal(t, 5, got.LongestStreak)
}

func TestApplyStreak_SameDayRepeat(t *testing.T) {
	last := day(2026, 3, 1)
	p := UserProgress{CurrentStreak: 4, LongestStreak: 6, LastChallengeDate: &last}

	got := p.ApplyStreak(day(2026, 3, 1))
	assert.Equal(t, 4, got.CurrentStreak, "same-day call must not change the streak")
	assert.Equal(t, 6, got.LongestStreak)

	// idempotent for repeat same-day calls
	again := got.ApplyStreak(day(2026, 3, 1))
	assert.Equal(t, got.CurrentStreak, again.CurrentStreak)
}

func TestApplyStreak_GapResets(t *testing.T) {
	last := day(2026, 3, 1)
	p := UserProgress{CurrentStreak: 5, LongestStreak: 5, LastChallengeDate: &last}

	got := p.ApplyStreak(day(2026, 3, 3))
	assert.Equal(t, 1, got.CurrentStreak, "a gap of more than one day resets the streak")
	assert.Equal(t, 5, got.LongestStreak, "longest streak survives the reset")
	assert.Equal(t, day(2026, 3, 3), *got.LastChallengeDate)
}

func TestApplyStreak_LongestNeverBelowCurrent(t *testing.T) {
	p := DefaultProgress(uuid.New())
	d := day(2026, 1, 1)
	for i := 0; i < 10; i++ {
		p = p.ApplyStreak(d.AddDate(0, 0, i))
		require.LessOrEqual(t, p.CurrentStreak, p.LongestStreak)
	}
	assert.Equal(t, 10, p.CurrentStreak)
}

func TestApplyStreak_DoesNotMutateReceiver(t *testing.T) {
	p := DefaultProgress(uuid.New())
	_ = p.ApplyStreak(day(2026, 3, 1))
	assert.Equal(t, 0, p.CurrentStreak)
	assert.Nil(t, p.LastChallengeDate)
}

// --- ApplyCompletion ---

func TestApplyCompletion_NewUser(t *testing.T) {
	p := DefaultProgress(uuid.New())
	got := p.ApplyCompletion(10, day(2026, 3, 1))

	assert.Equal(t, 10, got.TotalPoints)
	assert.Equal(t, 1, got.FlowerLevel)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, 1, got.LongestStreak)
}

func TestApplyCompletion_LevelBoundary(t *testing.T) {
	last := day(2026, 3, 1)
	p := UserProgress{TotalPoints: 90, FlowerLevel: 1, CurrentStreak: 1, LongestStreak: 1, LastChallengeDate: &last}

	got := p.ApplyCompletion(10, day(2026, 3, 2))
	assert.Equal(t, 100, got.TotalPoints)
	assert.Equal(t, 2, got.FlowerLevel)
	assert.Equal(t, 2, got.CurrentStreak)
}

// --- Badge rules ---

func ruleByType(t *testing.T, badgeType string) BadgeRule {
	t.Helper()
	for _, r := range DefaultBadgeRules() {
		if r.BadgeType == badgeType {
			return r
		}
	}
	t.Fatalf("rule %s not in table", badgeType)
	return BadgeRule{}
}

func TestDefaultBadgeRules_Complete(t *testing.T) {
	want := []string{
		"FIRST_STEP", "STREAK_3", "STREAK_7",
		"TOTAL_10", "TOTAL_30", "TOTAL_50",
		"LEVEL_3", "LEVEL_5", "LEVEL_7", "LEVEL_10",
		"GRATITUDE_10", "KINDNESS_10", "SELF_CARE_10", "CREATIVITY_10", "CONNECTION_10",
	}
	rules := DefaultBadgeRules()
	require.Len(t, rules, len(want))

	have := make(map[string]bool, len(rules))
	for _, r := range rules {
		have[r.BadgeType] = true
	}
	for _, w := range want {
		assert.True(t, have[w], "missing rule %s", w)
	}
}

func TestBadgeRules_Thresholds(t *testing.T) {
	tests := []struct {
		badgeType string
		facts     BadgeFacts
		met       bool
	}{
		{"FIRST_STEP", BadgeFacts{TotalCompletions: 0}, false},
		{"FIRST_STEP", BadgeFacts{TotalCompletions: 1}, true},
		{"STREAK_3", BadgeFacts{CurrentStreak: 2}, false},
		{"STREAK_3", BadgeFacts{CurrentStreak: 3}, true},
		{"STREAK_3", BadgeFacts{CurrentStreak: 5}, true},
		{"STREAK_7", BadgeFacts{CurrentStreak: 5}, false},
		{"STREAK_7", BadgeFacts{CurrentStreak: 7}, true},
		{"TOTAL_10", BadgeFacts{TotalCompletions: 9}, false},
		{"TOTAL_10", BadgeFacts{TotalCompletions: 10}, true},
		{"TOTAL_30", BadgeFacts{TotalCompletions: 30}, true},
		{"TOTAL_50", BadgeFacts{TotalCompletions: 49}, false},
		{"LEVEL_3", BadgeFacts{FlowerLevel: 3}, true},
		{"LEVEL_10", BadgeFacts{FlowerLevel: 9}, false},
		{"LEVEL_10", BadgeFacts{FlowerLevel: 10}, true},
		{"GRATITUDE_10", BadgeFacts{CategoryCounts: map[Category]int64{CategoryGratitude: 10}}, true},
		{"GRATITUDE_10", BadgeFacts{CategoryCounts: map[Category]int64{CategoryKindness: 10}}, false},
		{"CONNECTION_10", BadgeFacts{CategoryCounts: map[Category]int64{CategoryConnection: 12}}, true},
	}
	for _, tt := range tests {
		rule := ruleByType(t, tt.badgeType)
		assert.Equal(t, tt.met, rule.Met(tt.facts), "%s with %+v", tt.badgeType, tt.facts)
	}
}

// --- Validators ---

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "user@example.com", false},
		{"valid with plus", "user+tag@example.com", false},
		{"empty", "", true},
		{"no at sign", "userexample.com", true},
		{"no tld", "user@example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("SELF_CARE")
	require.NoError(t, err)
	assert.Equal(t, CategorySelfCare, got)

	_, err = ParseCategory("self_care")
	require.Error(t, err)

	_, err = ParseCategory("MINDFULNESS")
	require.Error(t, err)
}

// --- Errors ---

func TestAppErrorCodes(t *testing.T) {
	assert.Equal(t, 422, ErrDailyCapExceeded().Status)
	assert.Equal(t, "DAILY_CAP_EXCEEDED", ErrDailyCapExceeded().Code)
	assert.Equal(t, 409, ErrAlreadyCompletedToday().Status)
	assert.Equal(t, 404, ErrNotFound("challenge", "x").Status)
	assert.Equal(t, 400, ErrValidation("bad").Status)

	cause := assert.AnError
	stErr := ErrStorage("insert completion", cause)
	assert.Equal(t, "STORAGE_ERROR", stErr.Code)
	assert.ErrorIs(t, stErr, cause)
}

func TestFlowerEmoji(t *testing.T) {
	assert.Equal(t, "🌱", UserProgress{FlowerLevel: 1}.FlowerEmoji())
	assert.Equal(t, "🌺", UserProgress{FlowerLevel: 5}.FlowerEmoji())
	assert.Equal(t, "🏵️", UserProgress{FlowerLevel: 10}.FlowerEmoji())
}
