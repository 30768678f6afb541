package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// AdminUseCase handles privileged account oversight.
type AdminUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	retrier      Retrier
	transactions *TransactionUseCase
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// NewAdminUseCase creates a new AdminUseCase.
func NewAdminUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	transactions *TransactionUseCase,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *AdminUseCase {
	return &AdminUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		retrier:      retrier,
		transactions: transactions,
		metrics:      metrics,
		logger:       logger.With().Str("component", "admin_usecase").Logger(),
	}
}

// ApproveTransaction approves or declines a pending transaction.
func (uc *AdminUseCase) ApproveTransaction(ctx context.Context, id string, approve bool) (*domain.Transaction, error) {
	return uc.transactions.ApproveTransaction(ctx, id, approve)
}

// ListAllTransactions lists every transaction with its owner.
func (uc *AdminUseCase) ListAllTransactions(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	return uc.transactions.ListAllTransactions(ctx, limit, offset)
}

// FreezeAccount sets or clears the frozen flag. Pending transactions are left as they are.
func (uc *AdminUseCase) FreezeAccount(ctx context.Context, id string, freeze bool) (*domain.Account, error) {
	var result *domain.Account
	err := uc.retrier.Retry(ctx, func() error {
		account, err := uc.mutateAccount(ctx, id, func(txCtx context.Context, tx Transaction, account *domain.Account, now time.Time) (string, error) {
			if err := uc.accountRepo.SetFrozen(txCtx, tx, account.ID, freeze, account.Version, now); err != nil {
				return "", err
			}
			account.Frozen = freeze
			if freeze {
				return domain.EventTypeAccountFrozen, nil
			}
			return domain.EventTypeAccountUnfrozen, nil
		})
		result = account
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil && freeze {
		uc.metrics.AccountsFrozen.Inc()
	}
	uc.logger.Info().Str("account_id", id).Bool("frozen", freeze).Msg("account freeze updated")

	return result, nil
}

// CorrectBalance overwrites an account balance. Negative balances are rejected.
func (uc *AdminUseCase) CorrectBalance(ctx context.Context, id string, balance decimal.Decimal) (*domain.Account, error) {
	if balance.IsNegative() {
		return nil, domain.ErrNegativeBalance
	}
	if err := domain.ValidateScale(balance); err != nil {
		return nil, err
	}

	var result *domain.Account
	var previous decimal.Decimal
	err := uc.retrier.Retry(ctx, func() error {
		account, err := uc.mutateAccount(ctx, id, func(txCtx context.Context, tx Transaction, account *domain.Account, now time.Time) (string, error) {
			previous = account.Balance
			if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, balance, account.Version, now); err != nil {
				return "", err
			}
			account.Balance = balance
			return domain.EventTypeBalanceCorrected, nil
		})
		result = account
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BalanceCorrections.Inc()
	}
	uc.logger.Warn().
		Str("account_id", id).
		Str("previous_balance", previous.String()).
		Str("balance", balance.String()).
		Msg("account balance corrected")

	return result, nil
}

// mutateAccount loads the account inside a DB transaction, applies fn and
// records the event type fn returns.
func (uc *AdminUseCase) mutateAccount(
	ctx context.Context,
	id string,
	fn func(txCtx context.Context, tx Transaction, account *domain.Account, now time.Time) (string, error),
) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDTx(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	eventType, err := fn(txCtx, tx, account, now)
	if err != nil {
		return nil, err
	}
	account.Version++
	account.UpdatedAt = now

	if err := uc.outboxRepo.Create(txCtx, tx, domain.NewAccountEvent(uc.idGen.Generate(), eventType, account, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return account, nil
}

// ListAccounts lists accounts with pagination.
func (uc *AdminUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// UpdateAccountInput represents the profile fields an admin may change.
// Nil fields are left untouched.
type UpdateAccountInput struct {
	ID        string
	FirstName *string
	LastName  *string
	Address   *string
	Email     *string
	Currency  *string
	Roles     []domain.Role
}

// UpdateAccount changes profile fields. Balance and frozen state are not
// reachable from here.
func (uc *AdminUseCase) UpdateAccount(ctx context.Context, input UpdateAccountInput) (*domain.Account, error) {
	if input.Email != nil {
		if err := domain.ValidateEmail(*input.Email); err != nil {
			return nil, err
		}
	}
	if input.Currency != nil {
		if err := domain.ValidateCurrency(*input.Currency); err != nil {
			return nil, err
		}
	}
	if input.Roles != nil {
		if err := domain.ValidateRoles(input.Roles); err != nil {
			return nil, err
		}
	}

	var result *domain.Account
	err := uc.retrier.Retry(ctx, func() error {
		account, err := uc.accountRepo.GetByID(ctx, input.ID)
		if err != nil {
			return err
		}

		if input.FirstName != nil {
			account.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			account.LastName = strings.TrimSpace(*input.LastName)
		}
		if input.Address != nil {
			account.Address = strings.TrimSpace(*input.Address)
		}
		if input.Email != nil {
			account.Email = domain.NormalizeEmail(*input.Email)
		}
		if input.Currency != nil {
			account.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
		}
		if input.Roles != nil {
			account.Roles = input.Roles
		}
		account.UpdatedAt = time.Now().UTC()

		expected := account.Version
		if err := uc.accountRepo.UpdateProfile(ctx, account, expected); err != nil {
			return err
		}
		account.Version = expected + 1
		result = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.HashedPassword = ""
	return result, nil
}

// DeleteAccount removes an account.
func (uc *AdminUseCase) DeleteAccount(ctx context.Context, id string) error {
	if err := uc.accountRepo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			uc.logger.Error().Err(err).Str("account_id", id).Msg("failed to delete account")
		}
		return err
	}

	uc.logger.Info().Str("account_id", id).Msg("account deleted")
	return nil
}
