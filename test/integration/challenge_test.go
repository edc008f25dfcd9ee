//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/bloomgrove/platform/test/integration/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completionResult struct {
	Completion struct {
		ID           uuid.UUID `json:"id"`
		ChallengeID  uuid.UUID `json:"challenge_id"`
		PointsEarned int       `json:"points_earned"`
		Note         string    `json:"note"`
	} `json:"completion"`
	Progress struct {
		TotalPoints   int `json:"total_points"`
		FlowerLevel   int `json:"flower_level"`
		CurrentStreak int `json:"current_streak"`
		LongestStreak int `json:"longest_streak"`
	} `json:"progress"`
	NewBadges []struct {
		BadgeType string `json:"badge_type"`
		IsNew     bool   `json:"is_new"`
	} `json:"new_badges"`
}

func completePath(id uuid.UUID) string {
	return fmt.Sprintf("/challenges/%s/complete", id)
}

func TestComplete_FirstChallenge(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("first@test.com", "securepass123", "First")
	challengeID := env.SeedChallenge("First completion challenge", "GRATITUDE", 10)

	resp := env.AuthPOST(completePath(challengeID), map[string]string{"note": "felt great"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result completionResult
	testutil.DecodeJSON(t, resp, &result)

	assert.Equal(t, challengeID, result.Completion.ChallengeID)
	assert.Equal(t, 10, result.Completion.PointsEarned)
	assert.Equal(t, "felt great", result.Completion.Note)
	assert.Equal(t, 10, result.Progress.TotalPoints)
	assert.Equal(t, 1, result.Progress.FlowerLevel)
	assert.Equal(t, 1, result.Progress.CurrentStreak)

	require.Len(t, result.NewBadges, 1)
	assert.Equal(t, "FIRST_STEP", result.NewBadges[0].BadgeType)
	assert.True(t, result.NewBadges[0].IsNew)

	testutil.AssertProgress(t, env, userID, 10, 1, 1)
}

func TestComplete_ZeroPointChallenge(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("zero@test.com", "securepass123", "Zero")
	challengeID := env.SeedChallenge("Zero point challenge", "CONNECTION", 0)

	resp := env.AuthPOST(completePath(challengeID), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result completionResult
	testutil.DecodeJSON(t, resp, &result)

	assert.Equal(t, 0, result.Completion.PointsEarned)
	assert.Equal(t, 0, result.Progress.TotalPoints)
	assert.Equal(t, 1, result.Progress.FlowerLevel)
	assert.Equal(t, 1, result.Progress.CurrentStreak)

	// Worth no points, but still a completion: streak advances and the row lands.
	testutil.AssertProgress(t, env, userID, 0, 1, 1)
}

func TestComplete_WritesOutboxEvents(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("events@test.com", "securepass123", "Events")
	challengeID := env.SeedChallenge("Outbox events challenge", "KINDNESS", 10)

	env.CompleteChallenge(token, challengeID)

	types := env.OutboxEventTypes(userID.String())
	assert.Contains(t, types, "bloom.challenge.completed")
	assert.Contains(t, types, "bloom.badge.awarded")
}

func TestComplete_DailyCap(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("cap@test.com", "securepass123", "Cap")

	ids := []uuid.UUID{
		env.SeedChallenge("Cap challenge 1", "GRATITUDE", 10),
		env.SeedChallenge("Cap challenge 2", "KINDNESS", 10),
		env.SeedChallenge("Cap challenge 3", "SELF_CARE", 10),
		env.SeedChallenge("Cap challenge 4", "CREATIVITY", 10),
	}

	for _, id := range ids[:3] {
		env.CompleteChallenge(token, id)
	}

	resp := env.AuthPOST(completePath(ids[3]), nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	testutil.AssertErrorCode(t, resp, "DAILY_CAP_EXCEEDED")
}

func TestComplete_ConcurrentRequestsHoldDailyCap(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("concurrent@test.com", "securepass123", "Concurrent")

	ids := []uuid.UUID{
		env.SeedChallenge("Concurrent challenge 1", "GRATITUDE", 10),
		env.SeedChallenge("Concurrent challenge 2", "KINDNESS", 10),
		env.SeedChallenge("Concurrent challenge 3", "SELF_CARE", 10),
		env.SeedChallenge("Concurrent challenge 4", "CREATIVITY", 10),
	}

	// Three requests per challenge, all in flight at once. The per-user lock
	// must serialize them so no pair both observe count below the cap and
	// both append.
	const perChallenge = 3
	results := make(chan int, len(ids)*perChallenge)
	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < perChallenge; i++ {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				req, err := http.NewRequest("POST", env.Server.URL+completePath(id), nil)
				if err != nil {
					results <- 0
					return
				}
				req.Header.Set("Authorization", "Bearer "+token)
				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					results <- 0
					return
				}
				resp.Body.Close()
				results <- resp.StatusCode
			}(id)
		}
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for code := range results {
		switch code {
		case http.StatusOK:
			succeeded++
		case http.StatusConflict, http.StatusUnprocessableEntity:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 3, succeeded)

	var completions, distinct int
	require.NoError(t, env.Pool.QueryRow(context.Background(),
		"SELECT COUNT(*), COUNT(DISTINCT challenge_id) FROM challenge_completions WHERE user_id = $1",
		userID).Scan(&completions, &distinct))
	assert.Equal(t, 3, completions)
	assert.Equal(t, 3, distinct)

	testutil.AssertProgress(t, env, userID, 30, 1, 1)
}

func TestComplete_DuplicateSameDay(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("dupday@test.com", "securepass123", "Dup")
	challengeID := env.SeedChallenge("Duplicate day challenge", "CONNECTION", 15)

	env.CompleteChallenge(token, challengeID)

	resp := env.AuthPOST(completePath(challengeID), nil, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	testutil.AssertErrorCode(t, resp, "ALREADY_COMPLETED_TODAY")

	// The failed attempt must not have moved points.
	testutil.AssertProgress(t, env, userID, 15, 1, 1)
}

func TestComplete_UnknownChallenge(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("unknown@test.com", "securepass123", "Unknown")

	resp := env.AuthPOST(completePath(uuid.New()), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestComplete_InactiveChallenge(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("inactive@test.com", "securepass123", "Inactive")
	challengeID := env.SeedChallenge("Inactive challenge", "GRATITUDE", 10)

	_, err := env.Pool.Exec(context.Background(),
		"UPDATE daily_challenges SET active = false WHERE id = $1", challengeID)
	require.NoError(t, err)

	resp := env.AuthPOST(completePath(challengeID), nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestComplete_NoteTooLong(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("longnote@test.com", "securepass123", "Long Note")
	challengeID := env.SeedChallenge("Long note challenge", "GRATITUDE", 10)

	note := make([]byte, 1001)
	for i := range note {
		note[i] = 'a'
	}

	resp := env.AuthPOST(completePath(challengeID), map[string]string{"note": string(note)}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestToday_ExcludesCompleted(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("today@test.com", "securepass123", "Today")

	resp := env.AuthGET("/challenges/today", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recommended []struct {
		ID uuid.UUID `json:"id"`
	}
	testutil.DecodeJSON(t, resp, &recommended)
	require.NotEmpty(t, recommended)
	assert.LessOrEqual(t, len(recommended), 3)

	completed := recommended[0].ID
	env.CompleteChallenge(token, completed)

	resp = env.AuthGET("/challenges/today", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &recommended)

	for _, c := range recommended {
		assert.NotEqual(t, completed, c.ID)
	}
}

func TestToday_EmptyAtCap(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("todaycap@test.com", "securepass123", "Today Cap")

	ids := []uuid.UUID{
		env.SeedChallenge("Today cap 1", "GRATITUDE", 10),
		env.SeedChallenge("Today cap 2", "KINDNESS", 10),
		env.SeedChallenge("Today cap 3", "SELF_CARE", 10),
	}
	for _, id := range ids {
		env.CompleteChallenge(token, id)
	}

	resp := env.AuthGET("/challenges/today", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recommended []json.RawMessage
	testutil.DecodeJSON(t, resp, &recommended)
	assert.Empty(t, recommended)
}

func TestByCategory(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("bycat@test.com", "securepass123", "By Cat")

	resp := env.AuthGET("/challenges/by-category/GRATITUDE", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var challenges []struct {
		Category string `json:"category"`
	}
	testutil.DecodeJSON(t, resp, &challenges)
	require.NotEmpty(t, challenges)
	for _, c := range challenges {
		assert.Equal(t, "GRATITUDE", c.Category)
	}
}

func TestByCategory_Invalid(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("badcat@test.com", "securepass123", "Bad Cat")

	resp := env.AuthGET("/challenges/by-category/NOPE", token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTodayCount(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("count@test.com", "securepass123", "Count")
	challengeID := env.SeedChallenge("Count challenge", "SELF_CARE", 10)

	env.CompleteChallenge(token, challengeID)

	resp := env.AuthGET("/challenges/today/count", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Count    int `json:"count"`
		DailyCap int `json:"daily_cap"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 3, result.DailyCap)
}

func TestHistory(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("history@test.com", "securepass123", "History")

	first := env.SeedChallenge("History challenge 1", "GRATITUDE", 10)
	second := env.SeedChallenge("History challenge 2", "KINDNESS", 15)
	env.CompleteChallenge(token, first)
	env.CompleteChallenge(token, second)

	resp := env.AuthGET("/challenges/history", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []struct {
		ChallengeID    uuid.UUID `json:"challenge_id"`
		ChallengeTitle string    `json:"challenge_title"`
		PointsEarned   int       `json:"points_earned"`
	}
	testutil.DecodeJSON(t, resp, &history)
	require.Len(t, history, 2)

	// Newest first
	assert.Equal(t, second, history[0].ChallengeID)
	assert.Equal(t, "History challenge 2", history[0].ChallengeTitle)
	assert.Equal(t, first, history[1].ChallengeID)
}

func TestRanking_OrderedByLevelThenPoints(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("viewer@test.com", "securepass123", "Viewer")
	_, midID := env.RegisterUser("mid@test.com", "securepass123", "Mid")
	_, topID := env.RegisterUser("top@test.com", "securepass123", "Top")
	_, lowID := env.RegisterUser("low@test.com", "securepass123", "Low")

	env.SetProgress(topID, 450, 5, 2, 4, nil)
	env.SetProgress(midID, 420, 5, 1, 1, nil)
	env.SetProgress(lowID, 80, 1, 3, 3, nil)

	resp := env.AuthGET("/challenges/ranking", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ranking []struct {
		UserID      uuid.UUID `json:"user_id"`
		FlowerLevel int       `json:"flower_level"`
		TotalPoints int       `json:"total_points"`
		Rank        int       `json:"rank"`
		FlowerEmoji string    `json:"flower_emoji"`
	}
	testutil.DecodeJSON(t, resp, &ranking)
	require.Len(t, ranking, 3)

	assert.Equal(t, topID, ranking[0].UserID)
	assert.Equal(t, 1, ranking[0].Rank)
	assert.Equal(t, "🌺", ranking[0].FlowerEmoji)
	assert.Equal(t, midID, ranking[1].UserID)
	assert.Equal(t, lowID, ranking[2].UserID)
}

func TestRecentActivity(t *testing.T) {
	env := testutil.NewTestEnv(t)
	tokenA, _ := env.RegisterUser("acta@test.com", "securepass123", "Act A")
	tokenB, _ := env.RegisterUser("actb@test.com", "securepass123", "Act B")

	first := env.SeedChallenge("Activity challenge 1", "CONNECTION", 10)
	second := env.SeedChallenge("Activity challenge 2", "CREATIVITY", 10)
	env.CompleteChallenge(tokenA, first)
	env.CompleteChallenge(tokenB, second)

	resp := env.AuthGET("/activity/recent", tokenA)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var activity []struct {
		ChallengeID uuid.UUID `json:"challenge_id"`
	}
	testutil.DecodeJSON(t, resp, &activity)
	require.Len(t, activity, 2)
	assert.Equal(t, second, activity[0].ChallengeID)
}

func TestStats_DefaultWindows(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("stats@test.com", "securepass123", "Stats")
	challengeID := env.SeedChallenge("Stats challenge", "GRATITUDE", 10)

	env.CompleteChallenge(token, challengeID)

	resp := env.AuthGET("/challenges/stats", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		TodayCount int   `json:"today_count"`
		WeekCount  int64 `json:"week_count"`
		MonthCount int64 `json:"month_count"`
		DailyCap   int   `json:"daily_cap"`
	}
	testutil.DecodeJSON(t, resp, &stats)
	assert.Equal(t, 1, stats.TodayCount)
	assert.Equal(t, int64(1), stats.WeekCount)
	assert.Equal(t, int64(1), stats.MonthCount)
	assert.Equal(t, 3, stats.DailyCap)
}
