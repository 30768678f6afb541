package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const accountColumns = `id, account_number, email, first_name, last_name, date_of_birth, address,
	encrypted_ssn, encrypted_drivers_license, hashed_password, balance, currency,
	frozen, roles, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := pgxTx(tx).Exec(ctx, query,
		account.ID,
		account.AccountNumber,
		account.Email,
		account.FirstName,
		account.LastName,
		timeToPgDate(account.DateOfBirth),
		account.Address,
		account.EncryptedSSN,
		account.EncryptedDriversLicense,
		account.HashedPassword,
		decimalToNumeric(account.Balance),
		account.Currency,
		account.Frozen,
		rolesToText(account.Roles),
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return translateUniqueViolation(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, r.db, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByIDTx retrieves an account by ID inside tx. The row is not locked;
// writers rely on the version check instead.
func (r *AccountRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return r.getOne(ctx, pgxTx(tx), `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByEmail retrieves an account by its normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, r.db, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// AccountNumberExists reports whether the account number is allocated.
func (r *AccountRepository) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`,
		accountNumber,
	).Scan(&exists)
	return exists, err
}

// UpdateBalance writes balance if the account is still at expectedVersion.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET balance = $2, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $3
	`

	return expectOne(pgxTx(tx).Exec(ctx, query, id, decimalToNumeric(balance), expectedVersion, timeToPgTimestamptz(updatedAt)))
}

// SetFrozen toggles the frozen flag if the account is still at expectedVersion.
func (r *AccountRepository) SetFrozen(ctx context.Context, tx usecase.Transaction, id string, frozen bool, expectedVersion int64, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET frozen = $2, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $3
	`

	return expectOne(pgxTx(tx).Exec(ctx, query, id, frozen, expectedVersion, timeToPgTimestamptz(updatedAt)))
}

// UpdateProfile writes the editable profile fields and roles.
func (r *AccountRepository) UpdateProfile(ctx context.Context, account *domain.Account, expectedVersion int64) error {
	query := `
		UPDATE accounts
		SET first_name = $2, last_name = $3, address = $4, email = $5, currency = $6,
			roles = $7, version = version + 1, updated_at = $9
		WHERE id = $1 AND version = $8
	`

	tag, err := r.db.Exec(ctx, query,
		account.ID,
		account.FirstName,
		account.LastName,
		account.Address,
		account.Email,
		account.Currency,
		rolesToText(account.Roles),
		expectedVersion,
		timeToPgTimestamptz(account.UpdatedAt),
	)
	return expectOne(tag, translateUniqueViolation(err))
}

// UpdatePassword replaces the password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, hashedPassword string, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET hashed_password = $2, version = version + 1, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, hashedPassword, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete removes an account. Its transactions are kept.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// List retrieves accounts, newest first.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func (r *AccountRepository) getOne(ctx context.Context, db querier, query string, arg any) (*domain.Account, error) {
	account, err := scanAccount(db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		dob       pgtype.Date
		balance   pgtype.Numeric
		roles     []string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.Email,
		&account.FirstName,
		&account.LastName,
		&dob,
		&account.Address,
		&account.EncryptedSSN,
		&account.EncryptedDriversLicense,
		&account.HashedPassword,
		&balance,
		&account.Currency,
		&account.Frozen,
		&roles,
		&account.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.DateOfBirth = dob.Time
	account.Balance = numericToDecimal(balance)
	account.Roles = textToRoles(roles)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	return &account, nil
}
