package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountFrozen       = errors.New("account is frozen")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrAccountNumberTaken  = errors.New("account number is already in use")
	ErrNegativeBalance     = errors.New("balance cannot be negative")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidOTP          = errors.New("invalid or expired otp")
	ErrAccountNumberSpace  = errors.New("could not allocate a unique account number")
	ErrEncryptionKeyLength = errors.New("encryption key must be 32 bytes")

	// Transaction errors
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrTransactionAlreadySettled = errors.New("transaction has already been settled")
	ErrInvalidAmount             = errors.New("amount must be positive")
	ErrInvalidDirection          = errors.New("direction must be credit or debit")

	// Concurrency errors
	ErrConcurrentUpdate = errors.New("record was modified concurrently")
)
