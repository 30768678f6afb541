package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultAutoApproveThreshold is the amount below which a transaction settles on creation.
	DefaultAutoApproveThreshold = "50000"

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultOTPTTL is how long a password reset code stays valid.
	DefaultOTPTTL = 10 * time.Minute

	// accountNumberAttempts bounds the search for a free account number.
	accountNumberAttempts = 10

	otpDigits = 6
)
