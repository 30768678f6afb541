package usecase

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// AccountUseCase serves the caller's own account view.
type AccountUseCase struct {
	accountRepo AccountRepository
	cipher      FieldCipher
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, cipher FieldCipher) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		cipher:      cipher,
	}
}

// Profile is an account with its sealed identity fields reduced to their last digits.
type Profile struct {
	Account             *domain.Account
	SSNLast4            string
	DriversLicenseLast4 string
}

// GetAccount retrieves an account by ID without its password hash.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.HashedPassword = ""
	return account, nil
}

// GetProfile retrieves the account together with masked identity fields.
func (uc *AccountUseCase) GetProfile(ctx context.Context, id string) (*Profile, error) {
	account, err := uc.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	ssn, err := uc.cipher.Open(account.EncryptedSSN)
	if err != nil {
		return nil, err
	}
	license, err := uc.cipher.Open(account.EncryptedDriversLicense)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Account:             account,
		SSNLast4:            lastN(ssn, 4),
		DriversLicenseLast4: lastN(license, 4),
	}, nil
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
