//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bloomgrove/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressView struct {
	TotalPoints   int    `json:"total_points"`
	FlowerLevel   int    `json:"flower_level"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	FlowerEmoji   string `json:"flower_emoji"`
}

func utcDay(daysAgo int) *time.Time {
	d := time.Now().UTC().AddDate(0, 0, -daysAgo)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

func TestProgress_DefaultForNewUser(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("fresh@test.com", "securepass123", "Fresh")

	resp := env.AuthGET("/progress", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view progressView
	testutil.DecodeJSON(t, resp, &view)
	assert.Equal(t, 0, view.TotalPoints)
	assert.Equal(t, 1, view.FlowerLevel)
	assert.Equal(t, 0, view.CurrentStreak)
	assert.Equal(t, "🌱", view.FlowerEmoji)

	// The default view must not be persisted.
	var count int
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM user_progress WHERE user_id = $1", userID).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestProgress_StreakContinues(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("streak@test.com", "securepass123", "Streak")
	challengeID := env.SeedChallenge("Streak continue challenge", "SELF_CARE", 10)

	// Completed yesterday with a 4 day streak.
	env.SetProgress(userID, 40, 1, 4, 4, utcDay(1))
	env.CompleteChallenge(token, challengeID)

	testutil.AssertProgress(t, env, userID, 50, 1, 5)
}

func TestProgress_StreakUnchangedSameDay(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("sameday@test.com", "securepass123", "Same Day")
	challengeID := env.SeedChallenge("Same day streak challenge", "SELF_CARE", 10)

	env.SetProgress(userID, 20, 1, 2, 2, utcDay(0))
	env.CompleteChallenge(token, challengeID)

	testutil.AssertProgress(t, env, userID, 30, 1, 2)
}

func TestProgress_StreakResetsAfterGap(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("gap@test.com", "securepass123", "Gap")
	challengeID := env.SeedChallenge("Gap streak challenge", "CREATIVITY", 10)

	env.SetProgress(userID, 60, 1, 6, 6, utcDay(3))
	env.CompleteChallenge(token, challengeID)

	testutil.AssertProgress(t, env, userID, 70, 1, 1)

	// Longest streak survives the reset.
	var longest int
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT longest_streak FROM user_progress WHERE user_id = $1", userID).Scan(&longest))
	assert.Equal(t, 6, longest)
}

func TestProgress_LevelBoundary(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("boundary@test.com", "securepass123", "Boundary")
	challengeID := env.SeedChallenge("Level boundary challenge", "GRATITUDE", 10)

	// 95 + 10 crosses the 100 point boundary into level 2.
	env.SetProgress(userID, 95, 1, 1, 1, utcDay(1))
	env.CompleteChallenge(token, challengeID)

	testutil.AssertProgress(t, env, userID, 105, 2, 2)
}

func TestProgress_LevelCapAtTen(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("levelcap@test.com", "securepass123", "Level Cap")
	challengeID := env.SeedChallenge("Level cap challenge", "GRATITUDE", 15)

	env.SetProgress(userID, 1200, 10, 1, 1, utcDay(1))
	env.CompleteChallenge(token, challengeID)

	testutil.AssertProgress(t, env, userID, 1215, 10, 2)

	resp := env.AuthGET("/progress", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view progressView
	testutil.DecodeJSON(t, resp, &view)
	assert.Equal(t, "🏵️", view.FlowerEmoji)
}
