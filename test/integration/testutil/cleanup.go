//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll removes all per-user state in dependency-safe order. The seeded
// challenge and badge catalogs are left in place.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		"event_outbox",
		"user_badges",
		"challenge_completions",
		"user_progress",
		"users",
	}

	for _, table := range tables {
		_, _ = env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
	}
}
