package mocks

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// journal registers an undo step on tx when tx is a *MockTransaction.
func journal(tx usecase.Transaction, undo func()) {
	if mt, ok := tx.(*MockTransaction); ok {
		mt.onRollback(undo)
	}
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	c.Roles = append([]domain.Role(nil), a.Roles...)
	return &c
}

func copyTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.Owner != nil {
		owner := *t.Owner
		c.Owner = &owner
	}
	return &c
}

// MockAccountRepository is an in-memory AccountRepository that honors
// expected versions the way the SQL repository does.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.Account, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*domain.Account, error)
	NumberExistsFunc  func(ctx context.Context, accountNumber string) (bool, error)
	UpdateBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	ListFunc          func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return domain.ErrEmailTaken
		}
		if existing.AccountNumber == account.AccountNumber {
			return domain.ErrAccountNumberTaken
		}
	}
	m.accounts[account.ID] = copyAccount(account)
	journal(tx, func() { m.remove(account.ID) })
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return copyAccount(acc), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.Email == email {
			return copyAccount(acc), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	if m.NumberExistsFunc != nil {
		return m.NumberExistsFunc(ctx, accountNumber)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.AccountNumber == accountNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, expectedVersion, updatedAt)
	}
	return m.mutate(tx, id, expectedVersion, func(acc *domain.Account) {
		acc.Balance = balance
		acc.UpdatedAt = updatedAt
	})
}

func (m *MockAccountRepository) SetFrozen(ctx context.Context, tx usecase.Transaction, id string, frozen bool, expectedVersion int64, updatedAt time.Time) error {
	return m.mutate(tx, id, expectedVersion, func(acc *domain.Account) {
		acc.Frozen = frozen
		acc.UpdatedAt = updatedAt
	})
}

func (m *MockAccountRepository) UpdateProfile(ctx context.Context, account *domain.Account, expectedVersion int64) error {
	return m.mutate(nil, account.ID, expectedVersion, func(acc *domain.Account) {
		acc.FirstName = account.FirstName
		acc.LastName = account.LastName
		acc.Address = account.Address
		acc.Email = account.Email
		acc.Currency = account.Currency
		acc.Roles = append([]domain.Role(nil), account.Roles...)
		acc.UpdatedAt = account.UpdatedAt
	})
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id, hashedPassword string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.HashedPassword = hashedPassword
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		accounts = append(accounts, copyAccount(acc))
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return page(accounts, limit, offset), nil
}

func (m *MockAccountRepository) mutate(tx usecase.Transaction, id string, expectedVersion int64, apply func(acc *domain.Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return domain.ErrConcurrentUpdate
	}
	previous := copyAccount(acc)
	apply(acc)
	acc.Version++
	journal(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.accounts[id] = previous
	})
	return nil
}

func (m *MockAccountRepository) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
}

func (m *MockAccountRepository) summary(id string) *domain.AccountSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc.Summary()
	}
	return nil
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	// Accounts, when set, supplies owners for ListAll.
	Accounts *MockAccountRepository

	CreateFunc       func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, expectedVersion int64, updatedAt time.Time) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = copyTransaction(txn)
	journal(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.transactions, txn.ID)
	})
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return copyTransaction(t), nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, expectedVersion, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if t.Status != domain.TransactionStatusPending || t.Version != expectedVersion {
		return domain.ErrConcurrentUpdate
	}
	previous := copyTransaction(t)
	t.Status = status
	t.Version++
	t.UpdatedAt = updatedAt
	journal(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.transactions[id] = previous
	})
	return nil
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	return m.filter(limit, offset, func(t *domain.Transaction) bool {
		return t.AccountID == accountID
	}), nil
}

func (m *MockTransactionRepository) ListByAccountAndCategory(ctx context.Context, accountID, category string, limit, offset int) ([]*domain.Transaction, error) {
	return m.filter(limit, offset, func(t *domain.Transaction) bool {
		return t.AccountID == accountID && t.Category == category
	}), nil
}

func (m *MockTransactionRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	txns := m.filter(limit, offset, func(*domain.Transaction) bool { return true })
	if m.Accounts != nil {
		for _, t := range txns {
			t.Owner = m.Accounts.summary(t.AccountID)
		}
	}
	return txns, nil
}

func (m *MockTransactionRepository) filter(limit, offset int, keep func(t *domain.Transaction) bool) []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, t := range m.transactions {
		if keep(t) {
			txns = append(txns, copyTransaction(t))
		}
	}
	sort.Slice(txns, func(i, j int) bool {
		if txns[i].CreatedAt.Equal(txns[j].CreatedAt) {
			return txns[i].ID > txns[j].ID
		}
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
	return page(txns, limit, offset)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// MockOutboxRepository is an in-memory OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	journal(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.events {
			if e.ID == event.ID {
				m.events = append(m.events[:i], m.events[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.events {
		if e.PublishedAt == nil {
			events = append(events, e)
		}
	}
	return page(events, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			at := publishedAt
			e.PublishedAt = &at
			e.Published = true
			return nil
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	var deleted int64
	for _, e := range m.events {
		if e.PublishedAt != nil && e.PublishedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return deleted, nil
}

// EventTypes returns the recorded event types in insertion order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction undoes the writes registered against it when rolled back
// before a commit.
type MockTransaction struct {
	mu        sync.Mutex
	undo      []func()
	committed bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) onRollback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, fn)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = true
	m.undo = nil
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		if err := m.RollbackFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	undo := m.undo
	m.undo = nil
	committed := m.committed
	m.mu.Unlock()
	if committed {
		return nil
	}
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	return nil
}

// MockRetrier retries on domain.ErrConcurrentUpdate without sleeping.
type MockRetrier struct {
	MaxAttempts int

	mu       sync.Mutex
	attempts int
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{MaxAttempts: 5}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	var err error
	for i := 0; i < m.MaxAttempts; i++ {
		m.mu.Lock()
		m.attempts++
		m.mu.Unlock()

		err = operation()
		if err == nil || !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
	}
	return err
}

// Attempts reports how many times operations were invoked.
func (m *MockRetrier) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

const sealedPrefix = "sealed:"

// MockFieldCipher marks values as sealed without encrypting them.
type MockFieldCipher struct {
	SealFunc func(plaintext string) (string, error)
}

func (m *MockFieldCipher) Seal(plaintext string) (string, error) {
	if m.SealFunc != nil {
		return m.SealFunc(plaintext)
	}
	return sealedPrefix + plaintext, nil
}

func (m *MockFieldCipher) Open(sealed string) (string, error) {
	plain, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", errors.New("mock cipher: value not sealed")
	}
	return plain, nil
}

// MockTokenIssuer issues predictable tokens derived from the account ID.
type MockTokenIssuer struct {
	IssueAccessTokenFunc func(account *domain.Account) (string, error)
}

func (m *MockTokenIssuer) IssueAccessToken(account *domain.Account) (string, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(account)
	}
	return "access-" + account.ID, nil
}

func (m *MockTokenIssuer) IssueRefreshToken(account *domain.Account) (string, error) {
	return "refresh-" + account.ID, nil
}

func (m *MockTokenIssuer) VerifyRefreshToken(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "refresh-")
	if !ok || id == "" {
		return "", domain.ErrInvalidToken
	}
	return id, nil
}
