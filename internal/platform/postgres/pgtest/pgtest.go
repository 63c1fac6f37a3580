// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pgtest provisions throwaway PostgreSQL databases for repository
integration tests.

# Usage

Set TEST_DATABASE_URL to a postgres:// URL whose role may create databases.
Each call to [Open] creates a fresh database, applies every migration and
drops it again when the test finishes. Without the variable the test is
skipped, so `go test ./...` stays green on machines without PostgreSQL.
*/
package pgtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/huddle/internal/platform/database/schema"
	"github.com/taibuivan/huddle/internal/platform/migration"
	"github.com/taibuivan/huddle/internal/platform/postgres"
	"github.com/taibuivan/huddle/pkg/uuid"
)

// EnvDatabaseURL names the variable holding the server to test against.
const EnvDatabaseURL = "TEST_DATABASE_URL"

const setupTimeout = 30 * time.Second

/*
Open returns a pool connected to a freshly migrated database.

Parameters:
  - t: testing.TB (skipped when EnvDatabaseURL is unset)

Returns:
  - *pgxpool.Pool: closed, and its database dropped, by t.Cleanup
*/
func Open(t testing.TB) *pgxpool.Pool {
	t.Helper()

	baseURL := os.Getenv(EnvDatabaseURL)
	if baseURL == "" {
		t.Skipf("%s is not set", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	admin, err := pgx.Connect(ctx, baseURL)
	require.NoError(t, err)

	name := "huddle_test_" + strings.ReplaceAll(uuid.New(), "-", "")
	identifier := pgx.Identifier{name}.Sanitize()

	_, err = admin.Exec(ctx, "CREATE DATABASE "+identifier)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), setupTimeout)
		defer dropCancel()
		if _, err := admin.Exec(dropCtx, "DROP DATABASE IF EXISTS "+identifier+" WITH (FORCE)"); err != nil {
			t.Logf("pgtest: drop %s: %v", name, err)
		}
		_ = admin.Close(dropCtx)
	})

	dsn, err := withDatabase(baseURL, name)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migration.RunUp(dsn, migrationsDir(t), logger))

	pool, err := postgres.NewPool(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

/*
SeedUser inserts an account row directly and returns its id.

Repositories other than the account store need users only as foreign key
targets, so no password hashing or username validation happens here.
*/
func SeedUser(t testing.TB, pool *pgxpool.Pool, username, role string) string {
	t.Helper()

	account := schema.UserAccount
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
		account.Table, account.ID, account.Username, account.UsernameKey, account.Password, account.Role)

	id := uuid.New()
	_, err := pool.Exec(context.Background(), query, id, username, strings.ToLower(username), "x", role)
	require.NoError(t, err)
	return id
}

// withDatabase swaps the database name in a postgres:// URL.
func withDatabase(rawURL, name string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("pgtest: %s must be a URL: %w", EnvDatabaseURL, err)
	}
	parsed.Path = "/" + name
	return parsed.String(), nil
}

// migrationsDir resolves data/migrations relative to this source file.
func migrationsDir(t testing.TB) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "pgtest: cannot locate source file")
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "data", "migrations")
}
