package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

type txnFixture struct {
	accounts *mocks.MockAccountRepository
	txns     *mocks.MockTransactionRepository
	outbox   *mocks.MockOutboxRepository
	retrier  *mocks.MockRetrier
	uc       *usecase.TransactionUseCase
	seeded   int
}

func newTxnFixture(policy usecase.TransactionPolicy, m *metrics.Metrics) *txnFixture {
	accounts := mocks.NewMockAccountRepository()
	txns := mocks.NewMockTransactionRepository()
	txns.Accounts = accounts
	outbox := mocks.NewMockOutboxRepository()
	retrier := mocks.NewMockRetrier()

	uc := usecase.NewTransactionUseCase(
		mocks.NewMockTransactionManager(),
		accounts,
		txns,
		outbox,
		mocks.NewMockIDGenerator(),
		retrier,
		policy,
		m,
		zerolog.Nop(),
	)

	return &txnFixture{accounts: accounts, txns: txns, outbox: outbox, retrier: retrier, uc: uc}
}

func (f *txnFixture) seed(t *testing.T, id string, balance int64, frozen bool) {
	t.Helper()
	f.seeded++
	err := f.accounts.Create(context.Background(), nil, &domain.Account{
		ID:            id,
		AccountNumber: fmt.Sprintf("%d", 100000000+f.seeded),
		Email:         id + "@example.com",
		FirstName:     "Test",
		LastName:      "Owner",
		Balance:       decimal.NewFromInt(balance),
		Currency:      domain.DefaultCurrency,
		Frozen:        frozen,
		Roles:         []domain.Role{domain.RoleUser},
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func (f *txnFixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	acc, err := f.accounts.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load account: %v", err)
	}
	return acc.Balance
}

func (f *txnFixture) create(t *testing.T, accountID string, amount int64, dir domain.Direction) *domain.Transaction {
	t.Helper()
	txn, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		AccountID: accountID,
		Amount:    decimal.NewFromInt(amount),
		Direction: dir,
		Narration: "test",
		Category:  "general",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return txn
}

func TestTransactionUseCase_CreateTransaction(t *testing.T) {
	tests := []struct {
		name           string
		balance        int64
		frozen         bool
		amount         int64
		direction      domain.Direction
		expectedStatus domain.TransactionStatus
		expectedBal    int64
		expectedEvents []string
		errorType      error
	}{
		{
			name:           "small credit settles immediately",
			balance:        100000,
			amount:         40000,
			direction:      domain.DirectionCredit,
			expectedStatus: domain.TransactionStatusApproved,
			expectedBal:    140000,
			expectedEvents: []string{domain.EventTypeTransactionCreated, domain.EventTypeTransactionApproved},
		},
		{
			name:           "small debit settles immediately",
			balance:        100000,
			amount:         100,
			direction:      domain.DirectionDebit,
			expectedStatus: domain.TransactionStatusApproved,
			expectedBal:    99900,
			expectedEvents: []string{domain.EventTypeTransactionCreated, domain.EventTypeTransactionApproved},
		},
		{
			name:           "large debit waits for approval",
			balance:        100000,
			amount:         60000,
			direction:      domain.DirectionDebit,
			expectedStatus: domain.TransactionStatusPending,
			expectedBal:    100000,
			expectedEvents: []string{domain.EventTypeTransactionCreated},
		},
		{
			name:           "amount equal to threshold stays pending",
			balance:        100000,
			amount:         50000,
			direction:      domain.DirectionCredit,
			expectedStatus: domain.TransactionStatusPending,
			expectedBal:    100000,
			expectedEvents: []string{domain.EventTypeTransactionCreated},
		},
		{
			name:        "frozen account rejected",
			balance:     100000,
			frozen:      true,
			amount:      100,
			direction:   domain.DirectionCredit,
			expectedBal: 100000,
			errorType:   domain.ErrAccountFrozen,
		},
		{
			name:        "frozen account rejected for large amounts too",
			balance:     100000,
			frozen:      true,
			amount:      60000,
			direction:   domain.DirectionDebit,
			expectedBal: 100000,
			errorType:   domain.ErrAccountFrozen,
		},
		{
			name:        "unfundable auto-approval persists nothing",
			balance:     100,
			amount:      200,
			direction:   domain.DirectionDebit,
			expectedBal: 100,
			errorType:   domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
			f.seed(t, "acc-1", tt.balance, tt.frozen)

			txn, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
				AccountID: "acc-1",
				Amount:    decimal.NewFromInt(tt.amount),
				Direction: tt.direction,
				Narration: "salary",
				Category:  "income",
			})

			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Fatalf("expected error %v, got %v", tt.errorType, err)
				}
				listed, _ := f.txns.ListByAccount(context.Background(), "acc-1", 100, 0)
				if len(listed) != 0 {
					t.Errorf("expected no persisted transactions, got %d", len(listed))
				}
				if events := f.outbox.EventTypes(); len(events) != 0 {
					t.Errorf("expected no outbox events, got %v", events)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if txn.Status != tt.expectedStatus {
					t.Errorf("expected status %s, got %s", tt.expectedStatus, txn.Status)
				}
				stored, err := f.txns.GetByID(context.Background(), txn.ID)
				if err != nil {
					t.Fatalf("transaction not stored: %v", err)
				}
				if stored.Status != tt.expectedStatus {
					t.Errorf("expected stored status %s, got %s", tt.expectedStatus, stored.Status)
				}
				events := f.outbox.EventTypes()
				if fmt.Sprint(events) != fmt.Sprint(tt.expectedEvents) {
					t.Errorf("expected events %v, got %v", tt.expectedEvents, events)
				}
			}

			if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(tt.expectedBal)) {
				t.Errorf("expected balance %d, got %s", tt.expectedBal, got)
			}
		})
	}
}

func TestTransactionUseCase_CreateTransaction_Validation(t *testing.T) {
	f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
	f.seed(t, "acc-1", 1000, false)

	tests := []struct {
		name      string
		input     usecase.CreateTransactionInput
		errorType error
	}{
		{
			name:      "zero amount",
			input:     usecase.CreateTransactionInput{AccountID: "acc-1", Amount: decimal.Zero, Direction: domain.DirectionCredit},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name:      "negative amount",
			input:     usecase.CreateTransactionInput{AccountID: "acc-1", Amount: decimal.NewFromInt(-5), Direction: domain.DirectionCredit},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name:      "unknown direction",
			input:     usecase.CreateTransactionInput{AccountID: "acc-1", Amount: decimal.NewFromInt(5), Direction: "sideways"},
			errorType: domain.ErrInvalidDirection,
		},
		{
			name:      "unknown account",
			input:     usecase.CreateTransactionInput{AccountID: "missing", Amount: decimal.NewFromInt(5), Direction: domain.DirectionCredit},
			errorType: domain.ErrAccountNotFound,
		},
		{
			name:      "amount rounds to zero in storage",
			input:     usecase.CreateTransactionInput{AccountID: "acc-1", Amount: decimal.RequireFromString("0.00004"), Direction: domain.DirectionCredit},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name:      "amount finer than storage scale",
			input:     usecase.CreateTransactionInput{AccountID: "acc-1", Amount: decimal.RequireFromString("1.00004"), Direction: domain.DirectionCredit},
			errorType: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.CreateTransaction(context.Background(), tt.input)
			if !errors.Is(err, tt.errorType) {
				t.Errorf("expected error %v, got %v", tt.errorType, err)
			}
		})
	}

	listed, err := f.txns.ListByAccount(context.Background(), "acc-1", 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected no transactions recorded for rejected input, got %d", len(listed))
	}
}

func TestTransactionUseCase_CreateTransaction_NoUpperBound(t *testing.T) {
	ctx := context.Background()
	f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
	f.seed(t, "acc-1", 0, false)
	f.seed(t, "frozen", 0, true)

	huge := decimal.RequireFromString("5000000000000000")
	txn, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
		AccountID: "acc-1",
		Amount:    huge,
		Direction: domain.DirectionCredit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Status != domain.TransactionStatusPending {
		t.Fatalf("expected pending, got %s", txn.Status)
	}

	if _, err := f.uc.ApproveTransaction(ctx, txn.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.balance(t, "acc-1"); !got.Equal(huge) {
		t.Errorf("expected balance %s, got %s", huge, got)
	}

	_, err = f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
		AccountID: "frozen",
		Amount:    huge,
		Direction: domain.DirectionCredit,
	})
	if !errors.Is(err, domain.ErrAccountFrozen) {
		t.Errorf("expected ErrAccountFrozen, got %v", err)
	}
}

func TestTransactionUseCase_ApproveTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("approving a pending debit moves the balance once", func(t *testing.T) {
		f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
		f.seed(t, "acc-1", 100000, false)
		pending := f.create(t, "acc-1", 60000, domain.DirectionDebit)

		approved, err := f.uc.ApproveTransaction(ctx, pending.ID, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if approved.Status != domain.TransactionStatusApproved {
			t.Errorf("expected approved, got %s", approved.Status)
		}
		if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(40000)) {
			t.Errorf("expected balance 40000, got %s", got)
		}

		_, err = f.uc.ApproveTransaction(ctx, pending.ID, true)
		if !errors.Is(err, domain.ErrTransactionAlreadySettled) {
			t.Errorf("expected ErrTransactionAlreadySettled, got %v", err)
		}
		_, err = f.uc.ApproveTransaction(ctx, pending.ID, false)
		if !errors.Is(err, domain.ErrTransactionAlreadySettled) {
			t.Errorf("expected ErrTransactionAlreadySettled on decline, got %v", err)
		}
		if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(40000)) {
			t.Errorf("balance changed after repeat approval: %s", got)
		}
	})

	t.Run("approving a pending credit", func(t *testing.T) {
		f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
		f.seed(t, "acc-1", 0, false)
		pending := f.create(t, "acc-1", 75000, domain.DirectionCredit)

		if _, err := f.uc.ApproveTransaction(ctx, pending.ID, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(75000)) {
			t.Errorf("expected balance 75000, got %s", got)
		}
	})

	t.Run("insufficient funds leaves transaction pending", func(t *testing.T) {
		f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
		f.seed(t, "acc-1", 10000, false)
		pending := f.create(t, "acc-1", 60000, domain.DirectionDebit)

		_, err := f.uc.ApproveTransaction(ctx, pending.ID, true)
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		stored, err := f.txns.GetByID(ctx, pending.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored.Status != domain.TransactionStatusPending {
			t.Errorf("expected pending, got %s", stored.Status)
		}
		if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(10000)) {
			t.Errorf("expected balance 10000, got %s", got)
		}
	})

	t.Run("decline leaves balance untouched", func(t *testing.T) {
		f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
		f.seed(t, "acc-1", 100000, false)
		pending := f.create(t, "acc-1", 60000, domain.DirectionDebit)

		declined, err := f.uc.ApproveTransaction(ctx, pending.ID, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if declined.Status != domain.TransactionStatusDeclined {
			t.Errorf("expected declined, got %s", declined.Status)
		}
		if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(100000)) {
			t.Errorf("expected balance 100000, got %s", got)
		}
		if _, err := f.uc.ApproveTransaction(ctx, pending.ID, true); !errors.Is(err, domain.ErrTransactionAlreadySettled) {
			t.Errorf("expected ErrTransactionAlreadySettled, got %v", err)
		}
	})

	t.Run("auto-approved transaction cannot be settled again", func(t *testing.T) {
		f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
		f.seed(t, "acc-1", 100000, false)
		settled := f.create(t, "acc-1", 100, domain.DirectionCredit)

		if _, err := f.uc.ApproveTransaction(ctx, settled.ID, true); !errors.Is(err, domain.ErrTransactionAlreadySettled) {
			t.Errorf("expected ErrTransactionAlreadySettled, got %v", err)
		}
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
		if _, err := f.uc.ApproveTransaction(ctx, "missing", true); !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Errorf("expected ErrTransactionNotFound, got %v", err)
		}
	})
}

func TestTransactionUseCase_ApproveTransaction_FrozenAccount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		block       bool
		approve     bool
		errorType   error
		expectedBal int64
	}{
		{name: "approval blocked", block: true, approve: true, errorType: domain.ErrAccountFrozen, expectedBal: 100000},
		{name: "decline still allowed", block: true, approve: false, expectedBal: 100000},
		{name: "approval allowed when policy permits", block: false, approve: true, expectedBal: 40000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := usecase.DefaultTransactionPolicy()
			policy.BlockFrozenApproval = tt.block
			f := newTxnFixture(policy, nil)
			f.seed(t, "acc-1", 100000, false)
			pending := f.create(t, "acc-1", 60000, domain.DirectionDebit)

			acc, _ := f.accounts.GetByID(ctx, "acc-1")
			if err := f.accounts.SetFrozen(ctx, nil, "acc-1", true, acc.Version, time.Now()); err != nil {
				t.Fatalf("freeze: %v", err)
			}

			_, err := f.uc.ApproveTransaction(ctx, pending.ID, tt.approve)
			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Fatalf("expected error %v, got %v", tt.errorType, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(tt.expectedBal)) {
				t.Errorf("expected balance %d, got %s", tt.expectedBal, got)
			}
		})
	}
}

func TestTransactionUseCase_ConcurrentApprovalOfSameTransaction(t *testing.T) {
	ctx := context.Background()
	f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
	f.seed(t, "acc-1", 100000, false)
	pending := f.create(t, "acc-1", 60000, domain.DirectionDebit)

	const workers = 2
	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.uc.ApproveTransaction(ctx, pending.ID, true)
		}(i)
	}
	close(start)
	wg.Wait()

	var succeeded, settled int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrTransactionAlreadySettled):
			settled++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || settled != 1 {
		t.Errorf("expected one success and one already-settled, got %d and %d", succeeded, settled)
	}
	if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("expected balance 40000, got %s", got)
	}
}

func TestTransactionUseCase_ConcurrentDebitsCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
	f.seed(t, "acc-1", 60000, false)
	first := f.create(t, "acc-1", 60000, domain.DirectionDebit)
	second := f.create(t, "acc-1", 60000, domain.DirectionDebit)

	ids := []string{first.ID, second.ID}
	errs := make([]error, len(ids))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			<-start
			_, errs[i] = f.uc.ApproveTransaction(ctx, id, true)
		}(i, id)
	}
	close(start)
	wg.Wait()

	var succeeded, insufficient int
	var loser string
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
			insufficient++
			loser = ids[i]
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("expected one success and one insufficient funds, got %d and %d", succeeded, insufficient)
	}
	if got := f.balance(t, "acc-1"); !got.IsZero() {
		t.Errorf("expected balance 0, got %s", got)
	}

	stored, err := f.txns.GetByID(ctx, loser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.TransactionStatusPending {
		t.Errorf("expected losing transaction to stay pending, got %s", stored.Status)
	}
}

func TestTransactionUseCase_RetriesOnConflict(t *testing.T) {
	f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
	f.seed(t, "acc-1", 100000, false)

	conflicts := 1
	f.accounts.UpdateBalanceFunc = func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
		if conflicts > 0 {
			conflicts--
			return domain.ErrConcurrentUpdate
		}
		f.accounts.UpdateBalanceFunc = nil
		return f.accounts.UpdateBalance(ctx, tx, id, balance, expectedVersion, updatedAt)
	}

	txn := f.create(t, "acc-1", 100, domain.DirectionCredit)
	if txn.Status != domain.TransactionStatusApproved {
		t.Errorf("expected approved, got %s", txn.Status)
	}
	if f.retrier.Attempts() != 2 {
		t.Errorf("expected 2 attempts, got %d", f.retrier.Attempts())
	}
	if got := f.balance(t, "acc-1"); !got.Equal(decimal.NewFromInt(100100)) {
		t.Errorf("expected balance 100100, got %s", got)
	}
	if events := f.outbox.EventTypes(); len(events) != 2 {
		t.Errorf("expected 2 outbox events after retry, got %v", events)
	}
}

func TestTransactionUseCase_Queries(t *testing.T) {
	ctx := context.Background()
	f := newTxnFixture(usecase.DefaultTransactionPolicy(), nil)
	f.seed(t, "acc-1", 1000, false)
	f.seed(t, "acc-2", 1000, false)

	create := func(accountID, category string) {
		t.Helper()
		_, err := f.uc.CreateTransaction(ctx, usecase.CreateTransactionInput{
			AccountID: accountID,
			Amount:    decimal.NewFromInt(10),
			Direction: domain.DirectionCredit,
			Category:  category,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	create("acc-1", "food")
	create("acc-1", "food")
	create("acc-1", "Food")
	create("acc-2", "food")

	t.Run("list by account", func(t *testing.T) {
		txns, err := f.uc.ListTransactionsByAccount(ctx, usecase.ListTransactionsInput{AccountID: "acc-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(txns) != 3 {
			t.Errorf("expected 3 transactions, got %d", len(txns))
		}
	})

	t.Run("category match is exact", func(t *testing.T) {
		txns, err := f.uc.FilterByCategory(ctx, usecase.ListTransactionsInput{AccountID: "acc-1", Category: "food"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(txns) != 2 {
			t.Errorf("expected 2 transactions, got %d", len(txns))
		}
		for _, txn := range txns {
			if txn.Category != "food" || txn.AccountID != "acc-1" {
				t.Errorf("unexpected transaction in filter: %+v", txn)
			}
		}
	})

	t.Run("list all attaches owners", func(t *testing.T) {
		txns, err := f.uc.ListAllTransactions(ctx, 0, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(txns) != 4 {
			t.Fatalf("expected 4 transactions, got %d", len(txns))
		}
		for _, txn := range txns {
			if txn.Owner == nil || txn.Owner.ID != txn.AccountID {
				t.Errorf("expected owner for %s", txn.ID)
			}
		}
	})

	t.Run("pagination", func(t *testing.T) {
		txns, err := f.uc.ListAllTransactions(ctx, 3, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(txns) != 2 {
			t.Errorf("expected 2 transactions, got %d", len(txns))
		}
	})

	t.Run("get transaction", func(t *testing.T) {
		all, _ := f.uc.ListAllTransactions(ctx, 1, 0)
		txn, err := f.uc.GetTransaction(ctx, all[0].ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if txn.ID != all[0].ID {
			t.Errorf("expected %s, got %s", all[0].ID, txn.ID)
		}
		if _, err := f.uc.GetTransaction(ctx, "missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
			t.Errorf("expected ErrTransactionNotFound, got %v", err)
		}
	})
}

func TestTransactionUseCase_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(reg)

	f := newTxnFixture(usecase.DefaultTransactionPolicy(), m)
	f.seed(t, "acc-1", 100, false)

	f.create(t, "acc-1", 10, domain.DirectionCredit)
	_, err := f.uc.CreateTransaction(context.Background(), usecase.CreateTransactionInput{
		AccountID: "acc-1",
		Amount:    decimal.NewFromInt(1000),
		Direction: domain.DirectionDebit,
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if got := testutil.ToFloat64(m.TransactionsCreated.WithLabelValues("credit", "approved")); got != 1 {
		t.Errorf("expected 1 created credit, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransactionErrors.WithLabelValues("insufficient_funds")); got != 1 {
		t.Errorf("expected 1 insufficient funds error, got %v", got)
	}
}
