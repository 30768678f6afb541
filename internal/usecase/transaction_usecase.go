package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// TransactionPolicy holds the settlement rules injected at construction.
type TransactionPolicy struct {
	// AutoApproveThreshold: amounts strictly below it settle on creation.
	AutoApproveThreshold decimal.Decimal
	// BlockFrozenApproval rejects approvals while the owning account is frozen.
	BlockFrozenApproval bool
}

// DefaultTransactionPolicy returns the 50000 threshold with frozen approvals blocked.
func DefaultTransactionPolicy() TransactionPolicy {
	return TransactionPolicy{
		AutoApproveThreshold: decimal.RequireFromString(DefaultAutoApproveThreshold),
		BlockFrozenApproval:  true,
	}
}

// TransactionUseCase runs the transaction lifecycle: creation, auto-approval
// and the pending -> approved/declined transition.
type TransactionUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	policy      TransactionPolicy
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	policy TransactionPolicy,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		policy:      policy,
		metrics:     metrics,
		logger:      logger.With().Str("component", "transaction_usecase").Logger(),
	}
}

// CreateTransactionInput represents input for creating a transaction.
type CreateTransactionInput struct {
	AccountID string
	Amount    decimal.Decimal
	Direction domain.Direction
	Narration string
	Category  string
}

// CreateTransaction records a money movement against an account. Amounts
// below the auto-approve threshold are settled immediately; the rest wait
// as pending for an admin.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.Direction.IsValid() {
		return nil, domain.ErrInvalidDirection
	}
	if err := domain.ValidateNarration(input.Narration); err != nil {
		return nil, err
	}
	if err := domain.ValidateCategory(input.Category); err != nil {
		return nil, err
	}

	start := time.Now()
	autoApprove := input.Amount.LessThan(uc.policy.AutoApproveThreshold)

	var created *domain.Transaction
	err := uc.retrier.Retry(ctx, func() error {
		txn, err := uc.createOnce(ctx, input, autoApprove)
		if err != nil {
			uc.observeConflict(err)
			return err
		}
		created = txn
		return nil
	})
	if err != nil {
		uc.observeError("create", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCreated.WithLabelValues(string(created.Direction), string(created.Status)).Inc()
		uc.metrics.TransactionAmount.Observe(created.Amount.InexactFloat64())
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Str("transaction_id", created.ID).
		Str("account_id", created.AccountID).
		Str("status", string(created.Status)).
		Msg("transaction created")

	return created, nil
}

func (uc *TransactionUseCase) createOnce(ctx context.Context, input CreateTransactionInput, autoApprove bool) (*domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetByIDTx(txCtx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	// Rejected before anything is written.
	if account.Frozen {
		return nil, domain.ErrAccountFrozen
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:        uc.idGen.Generate(),
		AccountID: account.ID,
		Amount:    input.Amount,
		Direction: input.Direction,
		Narration: input.Narration,
		Category:  input.Category,
		Status:    domain.TransactionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if autoApprove {
		newBalance, err := account.Apply(txn)
		if err != nil {
			// No pending record is left behind for an unfundable auto-approval.
			return nil, err
		}
		if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, newBalance, account.Version, now); err != nil {
			return nil, err
		}
		txn.Status = domain.TransactionStatusApproved
	}

	if err := uc.txnRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(txCtx, tx, domain.NewTransactionEvent(uc.idGen.Generate(), domain.EventTypeTransactionCreated, txn, now)); err != nil {
		return nil, err
	}
	if txn.Status == domain.TransactionStatusApproved {
		if err := uc.outboxRepo.Create(txCtx, tx, domain.NewTransactionEvent(uc.idGen.Generate(), domain.EventTypeTransactionApproved, txn, now)); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return txn, nil
}

// ApproveTransaction settles a pending transaction (approve=true) or
// declines it. Terminal transactions are rejected with
// domain.ErrTransactionAlreadySettled and never touch the balance.
func (uc *TransactionUseCase) ApproveTransaction(ctx context.Context, id string, approve bool) (*domain.Transaction, error) {
	start := time.Now()

	var settled *domain.Transaction
	err := uc.retrier.Retry(ctx, func() error {
		txn, err := uc.settleOnce(ctx, id, approve)
		if err != nil {
			uc.observeConflict(err)
			return err
		}
		settled = txn
		return nil
	})
	if err != nil {
		uc.observeError("settle", err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsSettled.WithLabelValues(string(settled.Status)).Inc()
		uc.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Str("transaction_id", settled.ID).
		Str("account_id", settled.AccountID).
		Str("status", string(settled.Status)).
		Msg("transaction settled")

	return settled, nil
}

func (uc *TransactionUseCase) settleOnce(ctx context.Context, id string, approve bool) (*domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	txn, err := uc.txnRepo.GetByIDTx(txCtx, tx, id)
	if err != nil {
		return nil, err
	}

	if txn.Status.IsTerminal() {
		return nil, domain.ErrTransactionAlreadySettled
	}

	account, err := uc.accountRepo.GetByIDTx(txCtx, tx, txn.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	eventType := domain.EventTypeTransactionDeclined
	status := domain.TransactionStatusDeclined

	if approve {
		if account.Frozen && uc.policy.BlockFrozenApproval {
			return nil, domain.ErrAccountFrozen
		}

		newBalance, err := account.Apply(txn)
		if err != nil {
			return nil, err
		}

		// Status first: a competing approver loses here before it can write the account.
		if err := uc.txnRepo.UpdateStatus(txCtx, tx, txn.ID, domain.TransactionStatusApproved, txn.Version, now); err != nil {
			return nil, err
		}
		if err := uc.accountRepo.UpdateBalance(txCtx, tx, account.ID, newBalance, account.Version, now); err != nil {
			return nil, err
		}

		status = domain.TransactionStatusApproved
		eventType = domain.EventTypeTransactionApproved
	} else {
		if err := uc.txnRepo.UpdateStatus(txCtx, tx, txn.ID, domain.TransactionStatusDeclined, txn.Version, now); err != nil {
			return nil, err
		}
	}

	txn.Status = status
	txn.Version++
	txn.UpdatedAt = now

	if err := uc.outboxRepo.Create(txCtx, tx, domain.NewTransactionEvent(uc.idGen.Generate(), eventType, txn, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return txn, nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing an account's transactions.
type ListTransactionsInput struct {
	AccountID string
	Category  string
	Limit     int
	Offset    int
}

// ListTransactionsByAccount retrieves transactions for a given account.
func (uc *TransactionUseCase) ListTransactionsByAccount(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.txnRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}

// FilterByCategory retrieves an account's transactions whose category
// equals input.Category exactly.
func (uc *TransactionUseCase) FilterByCategory(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.txnRepo.ListByAccountAndCategory(ctx, input.AccountID, input.Category, limit, offset)
}

// ListAllTransactions retrieves every transaction with its owner attached.
func (uc *TransactionUseCase) ListAllTransactions(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.txnRepo.ListAll(ctx, limit, offset)
}

func (uc *TransactionUseCase) observeConflict(err error) {
	if uc.metrics != nil && errors.Is(err, domain.ErrConcurrentUpdate) {
		uc.metrics.SettlementConflicts.Inc()
	}
}

func (uc *TransactionUseCase) observeError(op string, err error) {
	if uc.metrics != nil {
		uc.metrics.TransactionErrors.WithLabelValues(errorType(err)).Inc()
	}
	uc.logger.Debug().Err(err).Str("op", op).Msg("transaction operation failed")
}

// errorType gives a bounded label for metrics.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountFrozen):
		return "account_frozen"
	case errors.Is(err, domain.ErrTransactionAlreadySettled):
		return "already_settled"
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidDirection):
		return "invalid_input"
	default:
		return "internal"
	}
}
