//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RegisterUser creates a new account and returns the auth token and user ID.
func (env *TestEnv) RegisterUser(email, password, displayName string) (token string, userID uuid.UUID) {
	env.t.Helper()
	resp := env.POST("/auth/register", map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("RegisterUser: expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Token  string    `json:"token"`
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("RegisterUser: decode: %v", err)
	}
	return result.Token, result.UserID
}

// LoginUser authenticates an existing user and returns the auth token.
func (env *TestEnv) LoginUser(email, password string) string {
	env.t.Helper()
	resp := env.POST("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("LoginUser: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("LoginUser: decode: %v", err)
	}
	return result.Token
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPOST performs an authenticated POST request.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.POST(path, body, token)
}

// ActiveChallenges returns active challenge IDs, optionally filtered by category.
func (env *TestEnv) ActiveChallenges(category string) []uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := "SELECT id FROM daily_challenges WHERE active ORDER BY title"
	args := []interface{}{}
	if category != "" {
		query = "SELECT id FROM daily_challenges WHERE active AND category = $1 ORDER BY title"
		args = append(args, category)
	}

	rows, err := env.Pool.Query(ctx, query, args...)
	if err != nil {
		env.t.Fatalf("ActiveChallenges: %v", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			env.t.Fatalf("ActiveChallenges: scan: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

// SeedChallenge inserts an extra challenge and returns its ID.
func (env *TestEnv) SeedChallenge(title, category string, points int) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id uuid.UUID
	err := env.Pool.QueryRow(ctx, `
		INSERT INTO daily_challenges (title, description, points, category, difficulty)
		VALUES ($1, 'Seeded for tests', $2, $3, 'EASY') RETURNING id`,
		title, points, category).Scan(&id)
	if err != nil {
		env.t.Fatalf("SeedChallenge: %v", err)
	}

	env.t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = env.Pool.Exec(ctx, "DELETE FROM daily_challenges WHERE id = $1", id)
	})
	return id
}

// CompleteChallenge completes a challenge via the API and fails the test on a non-200.
func (env *TestEnv) CompleteChallenge(token string, challengeID uuid.UUID) {
	env.t.Helper()
	resp := env.AuthPOST(fmt.Sprintf("/challenges/%s/complete", challengeID), nil, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("CompleteChallenge %s: expected 200, got %d", challengeID, resp.StatusCode)
	}
}

// SetProgress writes the user's progress snapshot directly, bypassing the API.
// Used to stage streak and level scenarios.
func (env *TestEnv) SetProgress(userID uuid.UUID, totalPoints, flowerLevel, currentStreak, longestStreak int, lastChallengeDate *time.Time) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO user_progress (user_id, total_points, flower_level, current_streak, longest_streak, last_challenge_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			flower_level = EXCLUDED.flower_level,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_challenge_date = EXCLUDED.last_challenge_date,
			updated_at = now()`,
		userID, totalPoints, flowerLevel, currentStreak, longestStreak, lastChallengeDate)
	if err != nil {
		env.t.Fatalf("SetProgress: %v", err)
	}
}

// BackfillCompletion inserts a completion row directly with the given timestamp.
// Used to stage history and badge-threshold scenarios without waiting for real days.
func (env *TestEnv) BackfillCompletion(userID, challengeID uuid.UUID, completedAt time.Time, points int) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO challenge_completions (id, user_id, challenge_id, completed_at, points_earned)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), userID, challengeID, completedAt, points)
	if err != nil {
		env.t.Fatalf("BackfillCompletion: %v", err)
	}
}

// BadgeTypes returns the badge types the user currently holds.
func (env *TestEnv) BadgeTypes(userID uuid.UUID) []string {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx,
		"SELECT badge_type FROM user_badges WHERE user_id = $1 ORDER BY badge_type", userID)
	if err != nil {
		env.t.Fatalf("BadgeTypes: %v", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var bt string
		if err := rows.Scan(&bt); err != nil {
			env.t.Fatalf("BadgeTypes: scan: %v", err)
		}
		types = append(types, bt)
	}
	return types
}

// OutboxEventTypes returns all outbox event types recorded for the given partition key.
func (env *TestEnv) OutboxEventTypes(partitionKey string) []string {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx,
		"SELECT event_type FROM event_outbox WHERE partition_key = $1 ORDER BY id", partitionKey)
	if err != nil {
		env.t.Fatalf("OutboxEventTypes: %v", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var et string
		if err := rows.Scan(&et); err != nil {
			env.t.Fatalf("OutboxEventTypes: scan: %v", err)
		}
		types = append(types, et)
	}
	return types
}
