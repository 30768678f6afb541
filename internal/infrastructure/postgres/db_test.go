package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewPoolWithConfigDefaults(t *testing.T) {
	ctx := context.Background()

	// using invalid URL should return error
	if _, err := NewPoolWithConfig(ctx, PoolConfig{DatabaseURL: "not-a-url"}); err == nil {
		t.Fatalf("expected error when parsing invalid URL")
	}
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := PoolConfig{
		DatabaseURL:    "postgres://invalid:5432/db",
		MaxConns:       1,
		MinConns:       0,
		ConnectTimeout: time.Second,
	}

	_, err := NewPoolWithConfig(ctx, cfg)
	if err == nil {
		t.Fatalf("expected error when pool cannot connect")
	}
}

func TestRunMigrationsBadSource(t *testing.T) {
	if err := RunMigrations("postgres://invalid:5432/db", t.TempDir()+"/missing", nopLogger()); err == nil {
		t.Fatalf("expected error for missing migrations directory")
	}
}

func TestPgxMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@host:5432/db":   "pgx5://u:p@host:5432/db",
		"postgresql://u:p@host:5432/db": "pgx5://u:p@host:5432/db",
		"pgx5://host/db":                "pgx5://host/db",
	}

	for in, want := range tests {
		if got := pgxMigrateURL(in); got != want {
			t.Errorf("pgxMigrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
