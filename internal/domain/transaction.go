package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of the account a transaction moves money on.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// IsValid checks if the direction is known.
func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusDeclined TransactionStatus = "declined"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusDeclined
}

// Transaction is a single money movement request against one account.
type Transaction struct {
	ID        string
	AccountID string
	Amount    decimal.Decimal
	Direction Direction
	Narration string
	Category  string
	Status    TransactionStatus
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// Owner is only populated by reads that join the owning account.
	Owner *AccountSummary
}

// ApplyDirection computes the balance that results from moving amount in
// the given direction. It never touches storage.
func ApplyDirection(balance, amount decimal.Decimal, direction Direction) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return balance, ErrInvalidAmount
	}

	switch direction {
	case DirectionCredit:
		return balance.Add(amount), nil
	case DirectionDebit:
		if amount.GreaterThan(balance) {
			return balance, ErrInsufficientFunds
		}
		return balance.Sub(amount), nil
	default:
		return balance, ErrInvalidDirection
	}
}
