package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrPasswordTooWeak   = errors.New("password does not meet requirements")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrNarrationTooLong  = errors.New("narration exceeds maximum length")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidAccountNum = errors.New("account number must be 9 digits")
)

// Validation constants
const (
	AmountScale          = 4
	MaxNarrationLength   = 500
	MaxCategoryLength    = 64
	MinPasswordLength    = 8
	MaxPasswordLength    = 128
	AccountNumberLength  = 9
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "NGN": true, "TRY": true, "HKD": true,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims and lower-cases an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount validates a transaction amount. Amounts must be positive
// and carry at most AmountScale decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return ValidateScale(amount)
}

// ValidateScale rejects money values with more than AmountScale decimal
// places. Trailing zeros do not count.
func ValidateScale(value decimal.Decimal) error {
	if !value.Equal(value.Truncate(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountScale)
	}
	return nil
}

// ValidateNarration limits free-text narration size
func ValidateNarration(narration string) error {
	if len(narration) > MaxNarrationLength {
		return fmt.Errorf("%w: %d characters allowed", ErrNarrationTooLong, MaxNarrationLength)
	}
	return nil
}

// ValidateCategory checks a category label. Empty is allowed.
func ValidateCategory(category string) error {
	if len(category) > MaxCategoryLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidCategory, MaxCategoryLength)
	}
	if strings.TrimSpace(category) != category {
		return fmt.Errorf("%w: leading or trailing whitespace", ErrInvalidCategory)
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(NormalizeEmail(email)) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}

	if !hasUpper || !hasLower || !hasNumber {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// ValidateRoles checks that roles is non-empty and only holds known roles.
func ValidateRoles(roles []Role) error {
	if len(roles) == 0 {
		return fmt.Errorf("%w: at least one role is required", ErrInvalidRole)
	}
	for _, r := range roles {
		if !r.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidRole, r)
		}
	}
	return nil
}

// ValidateAccountNumber checks the 9-digit account number format.
func ValidateAccountNumber(number string) error {
	if len(number) != AccountNumberLength || number[0] == '0' {
		return ErrInvalidAccountNum
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return ErrInvalidAccountNum
		}
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
