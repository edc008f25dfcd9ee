//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// AssertProgress queries user_progress and asserts the persisted snapshot.
func AssertProgress(t *testing.T, env *TestEnv, userID uuid.UUID, totalPoints, flowerLevel, currentStreak int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var points, level, streak int
	err := env.Pool.QueryRow(ctx,
		"SELECT total_points, flower_level, current_streak FROM user_progress WHERE user_id = $1",
		userID).Scan(&points, &level, &streak)
	if err != nil {
		t.Fatalf("AssertProgress: query: %v", err)
	}
	if points != totalPoints {
		t.Errorf("expected total_points %d, got %d", totalPoints, points)
	}
	if level != flowerLevel {
		t.Errorf("expected flower_level %d, got %d", flowerLevel, level)
	}
	if streak != currentStreak {
		t.Errorf("expected current_streak %d, got %d", currentStreak, streak)
	}
}
