package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const transactionColumns = `id, account_id, amount, direction, narration, category, status, version, created_at, updated_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction within tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := pgxTx(tx).Exec(ctx, query,
		txn.ID,
		txn.AccountID,
		decimalToNumeric(txn.Amount),
		string(txn.Direction),
		txn.Narration,
		txn.Category,
		string(txn.Status),
		txn.Version,
		timeToPgTimestamptz(txn.CreatedAt),
		timeToPgTimestamptz(txn.UpdatedAt),
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.getOne(ctx, r.db, id)
}

// GetByIDTx retrieves a transaction by ID inside tx.
func (r *TransactionRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return r.getOne(ctx, pgxTx(tx), id)
}

// UpdateStatus settles a transaction that is still pending at expectedVersion.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, expectedVersion int64, updatedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = $2, version = version + 1, updated_at = $4
		WHERE id = $1 AND status = 'pending' AND version = $3
	`

	return expectOne(pgxTx(tx).Exec(ctx, query, id, string(status), expectedVersion, timeToPgTimestamptz(updatedAt)))
}

// ListByAccount lists an account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	return r.list(ctx, query, accountID, limit, offset)
}

// ListByAccountAndCategory lists an account's transactions with an exact category match.
func (r *TransactionRepository) ListByAccountAndCategory(ctx context.Context, accountID, category string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND category = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	return r.list(ctx, query, accountID, category, limit, offset)
}

// ListAll lists every transaction with its owner. Owner is nil once the
// account has been deleted.
func (r *TransactionRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, t.amount, t.direction, t.narration, t.category, t.status,
			t.version, t.created_at, t.updated_at,
			a.account_number, a.email, a.first_name, a.last_name
		FROM transactions t
		LEFT JOIN accounts a ON a.id = t.account_id
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]*domain.Transaction, 0, limit)
	for rows.Next() {
		var number, email, firstName, lastName pgtype.Text
		txn, err := scanTransaction(rows, &number, &email, &firstName, &lastName)
		if err != nil {
			return nil, err
		}
		if number.Valid {
			txn.Owner = &domain.AccountSummary{
				ID:            txn.AccountID,
				AccountNumber: number.String,
				Email:         email.String,
				FirstName:     firstName.String,
				LastName:      lastName.String,
			}
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func (r *TransactionRepository) getOne(ctx context.Context, db querier, id string) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// scanTransaction reads the transaction columns followed by any extra
// destinations the query selects.
func scanTransaction(row pgx.Row, extra ...any) (*domain.Transaction, error) {
	var (
		txn       domain.Transaction
		amount    pgtype.Numeric
		direction string
		status    string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	dest := []any{
		&txn.ID,
		&txn.AccountID,
		&amount,
		&direction,
		&txn.Narration,
		&txn.Category,
		&status,
		&txn.Version,
		&createdAt,
		&updatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	txn.Amount = numericToDecimal(amount)
	txn.Direction = domain.Direction(direction)
	txn.Status = domain.TransactionStatus(status)
	txn.CreatedAt = createdAt.Time
	txn.UpdatedAt = updatedAt.Time
	return &txn, nil
}
