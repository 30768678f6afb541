package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated  = "transaction.created"
	EventTypeTransactionApproved = "transaction.approved"
	EventTypeTransactionDeclined = "transaction.declined"
	EventTypeAccountCreated      = "account.created"
	EventTypeAccountFrozen       = "account.frozen"
	EventTypeAccountUnfrozen     = "account.unfrozen"
	EventTypeBalanceCorrected    = "account.balance_corrected"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransactionEvent builds the outbox record for a transaction state change.
func NewTransactionEvent(id, eventType string, txn *Transaction, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   txn.ID,
		AggregateType: AggregateTypeTransaction,
		EventType:     eventType,
		Payload: map[string]any{
			"transaction_id": txn.ID,
			"account_id":     txn.AccountID,
			"amount":         txn.Amount.String(),
			"direction":      string(txn.Direction),
			"category":       txn.Category,
			"status":         string(txn.Status),
		},
		CreatedAt: at,
	}
}

// NewAccountEvent builds the outbox record for an account change.
func NewAccountEvent(id, eventType string, account *Account, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   account.ID,
		AggregateType: AggregateTypeAccount,
		EventType:     eventType,
		Payload: map[string]any{
			"account_id":     account.ID,
			"account_number": account.AccountNumber,
			"balance":        account.Balance.String(),
			"currency":       account.Currency,
			"frozen":         account.Frozen,
		},
		CreatedAt: at,
	}
}
