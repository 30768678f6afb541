package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// AccountRepository defines data access for accounts.
//
// Every mutating method is a conditional write against expectedVersion and
// returns domain.ErrConcurrentUpdate when the stored version has moved on.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	SetFrozen(ctx context.Context, tx Transaction, id string, frozen bool, expectedVersion int64, updatedAt time.Time) error
	UpdateProfile(ctx context.Context, account *domain.Account, expectedVersion int64) error
	UpdatePassword(ctx context.Context, id, hashedPassword string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	// UpdateStatus moves a pending transaction to status. It only matches
	// rows that are still pending at expectedVersion.
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, expectedVersion int64, updatedAt time.Time) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListByAccountAndCategory(ctx context.Context, accountID, category string, limit, offset int) ([]*domain.Transaction, error)
	ListAll(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// OTPStore keeps short-lived password reset codes.
type OTPStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume returns domain.ErrInvalidOTP unless code matches, and deletes
	// the stored code on a match.
	Consume(ctx context.Context, email, code string) error
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// FieldCipher seals sensitive profile fields at rest.
type FieldCipher interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	IssueAccessToken(account *domain.Account) (string, error)
	IssueRefreshToken(account *domain.Account) (string, error)
	VerifyRefreshToken(token string) (accountID string, err error)
}
