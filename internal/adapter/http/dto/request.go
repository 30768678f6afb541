package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// RegisterRequest represents a request to open an account.
type RegisterRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DateOfBirth    string `json:"date_of_birth"`
	Address        string `json:"address"`
	SSN            string `json:"ssn"`
	DriversLicense string `json:"drivers_license"`
	Email          string `json:"email"`
	Password       string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() (usecase.RegisterInput, error) {
	dob, err := time.Parse(DateLayout, r.DateOfBirth)
	if err != nil {
		return usecase.RegisterInput{}, fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", domain.ErrInvalidProfile)
	}

	return usecase.RegisterInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		DateOfBirth:    dob,
		Address:        r.Address,
		SSN:            r.SSN,
		DriversLicense: r.DriversLicense,
		Email:          r.Email,
		Password:       r.Password,
	}, nil
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenRequest carries a refresh token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest asks for a reset code.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest resets a password with a previously mailed code.
type VerifyOTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// CreateTransactionRequest represents a request to move money on the caller's account.
type CreateTransactionRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"direction"`
	Narration string          `json:"narration"`
	Category  string          `json:"category"`
}

// ToUseCaseInput converts to use case input for accountID.
func (r *CreateTransactionRequest) ToUseCaseInput(accountID string) usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		AccountID: accountID,
		Amount:    r.Amount,
		Direction: domain.Direction(r.Direction),
		Narration: r.Narration,
		Category:  r.Category,
	}
}

// ApproveTransactionRequest settles a pending transaction.
type ApproveTransactionRequest struct {
	Approve *bool `json:"approve"`
}

// FreezeAccountRequest toggles the frozen flag.
type FreezeAccountRequest struct {
	Freeze *bool `json:"freeze"`
}

// CorrectBalanceRequest overwrites an account balance.
type CorrectBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance"`
}

// UpdateAccountRequest changes profile fields. Absent fields are kept.
type UpdateAccountRequest struct {
	FirstName *string  `json:"first_name,omitempty"`
	LastName  *string  `json:"last_name,omitempty"`
	Address   *string  `json:"address,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Currency  *string  `json:"currency,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// ToUseCaseInput converts to use case input for account id.
func (r *UpdateAccountRequest) ToUseCaseInput(id string) usecase.UpdateAccountInput {
	var roles []domain.Role
	if r.Roles != nil {
		roles = make([]domain.Role, len(r.Roles))
		for i, role := range r.Roles {
			roles[i] = domain.Role(role)
		}
	}

	return usecase.UpdateAccountInput{
		ID:        id,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Address:   r.Address,
		Email:     r.Email,
		Currency:  r.Currency,
		Roles:     roles,
	}
}
