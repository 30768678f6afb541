package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/repository/postgres"
	"github.com/iho/gobank/internal/domain"
	infra "github.com/iho/gobank/internal/infrastructure/postgres"
)

var accountNumbers atomic.Int64

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool     *pgxpool.Pool
	Accounts *postgres.AccountRepository
	t        *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations. The test is
// skipped when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := infra.RunMigrations(dbURL, migrationsPath(), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infra.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool:     pool,
		Accounts: postgres.NewAccountRepository(pool),
		t:        t,
	}
}

// migrationsPath finds the migrations directory from the repo root or a test package.
func migrationsPath() string {
	for _, candidate := range []string{"migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			abs, _ := filepath.Abs(candidate)
			return abs
		}
	}
	return "migrations"
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE outbox_events, transactions, accounts`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestAccount inserts an unfrozen user account holding balance.
func (db *TestDB) CreateTestAccount(ctx context.Context, email string, balance decimal.Decimal) *domain.Account {
	db.t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	account := &domain.Account{
		ID:             GenerateID(),
		AccountNumber:  fmt.Sprintf("%09d", 100000000+accountNumbers.Add(1)),
		Email:          email,
		FirstName:      "Test",
		LastName:       "User",
		DateOfBirth:    time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Address:        "1 Test St",
		HashedPassword: "$2a$10$placeholderplaceholderplaceholderplaceholderplacehold",
		Balance:        balance,
		Currency:       domain.DefaultCurrency,
		Roles:          []domain.Role{domain.RoleUser},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := postgres.NewTxManager(db.Pool).Begin(ctx)
	if err != nil {
		db.t.Fatalf("failed to begin: %v", err)
	}
	if err := db.Accounts.Create(ctx, tx, account); err != nil {
		_ = tx.Rollback(ctx)
		db.t.Fatalf("failed to create test account: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		db.t.Fatalf("failed to commit test account: %v", err)
	}

	return account
}

// Balance reloads the stored balance of an account.
func (db *TestDB) Balance(ctx context.Context, id string) decimal.Decimal {
	db.t.Helper()

	account, err := db.Accounts.GetByID(ctx, id)
	if err != nil {
		db.t.Fatalf("failed to load account %s: %v", id, err)
	}
	return account.Balance
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
