package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
)

// AuthConfig tunes registration and password reset.
type AuthConfig struct {
	OTPTTL time.Duration
	// AccountNumberSource yields candidate account numbers; defaults to GenerateAccountNumber.
	AccountNumberSource func() (string, error)
	// OTPSource yields reset codes; defaults to GenerateOTP.
	OTPSource func() (string, error)
}

// AuthUseCase handles registration, login and password reset.
type AuthUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	cipher      FieldCipher
	tokens      TokenIssuer
	otpStore    OTPStore
	mailer      Mailer
	cfg         AuthConfig
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cipher FieldCipher,
	tokens TokenIssuer,
	otpStore OTPStore,
	mailer Mailer,
	cfg AuthConfig,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *AuthUseCase {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = DefaultOTPTTL
	}
	if cfg.AccountNumberSource == nil {
		cfg.AccountNumberSource = GenerateAccountNumber
	}
	if cfg.OTPSource == nil {
		cfg.OTPSource = GenerateOTP
	}

	return &AuthUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		cipher:      cipher,
		tokens:      tokens,
		otpStore:    otpStore,
		mailer:      mailer,
		cfg:         cfg,
		metrics:     metrics,
		logger:      logger.With().Str("component", "auth_usecase").Logger(),
	}
}

// RegisterInput represents input for opening an account.
type RegisterInput struct {
	FirstName      string
	LastName       string
	DateOfBirth    time.Time
	Address        string
	SSN            string
	DriversLicense string
	Email          string
	Password       string
}

func (in RegisterInput) validate() error {
	if err := domain.ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return err
	}

	required := map[string]string{
		"first_name":      in.FirstName,
		"last_name":       in.LastName,
		"address":         in.Address,
		"ssn":             in.SSN,
		"drivers_license": in.DriversLicense,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrInvalidProfile, field)
		}
	}
	if in.DateOfBirth.IsZero() || in.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("%w: date_of_birth is invalid", domain.ErrInvalidProfile)
	}

	return nil
}

// Register opens a new account with a zero balance and a fresh 9-digit account number.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.Email)

	existing, err := uc.accountRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	sealedSSN, err := uc.cipher.Seal(input.SSN)
	if err != nil {
		return nil, fmt.Errorf("seal ssn: %w", err)
	}
	sealedLicense, err := uc.cipher.Seal(input.DriversLicense)
	if err != nil {
		return nil, fmt.Errorf("seal drivers license: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:                      uc.idGen.Generate(),
		Email:                   email,
		FirstName:               strings.TrimSpace(input.FirstName),
		LastName:                strings.TrimSpace(input.LastName),
		DateOfBirth:             input.DateOfBirth.UTC(),
		Address:                 strings.TrimSpace(input.Address),
		EncryptedSSN:            sealedSSN,
		EncryptedDriversLicense: sealedLicense,
		HashedPassword:          hashedPassword,
		Balance:                 decimal.Zero,
		Currency:                domain.DefaultCurrency,
		Roles:                   []domain.Role{domain.RoleUser},
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	for attempt := 0; attempt < accountNumberAttempts; attempt++ {
		number, err := uc.cfg.AccountNumberSource()
		if err != nil {
			return nil, err
		}

		exists, err := uc.accountRepo.AccountNumberExists(ctx, number)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		account.AccountNumber = number
		err = uc.createAccount(ctx, account)
		if errors.Is(err, domain.ErrAccountNumberTaken) {
			// Lost a race for the number.
			continue
		}
		if err != nil {
			return nil, err
		}

		if uc.metrics != nil {
			uc.metrics.AccountsRegistered.Inc()
		}
		uc.logger.Info().Str("account_id", account.ID).Msg("account registered")

		account.HashedPassword = ""
		return account, nil
	}

	return nil, domain.ErrAccountNumberSpace
}

func (uc *AuthUseCase) createAccount(ctx context.Context, account *domain.Account) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
		return err
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountCreated, account, account.CreatedAt)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// LoginInput represents authentication input
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the issued tokens.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Account      *domain.Account
}

// Login verifies credentials and issues an access and refresh token pair.
func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	account, err := uc.accountRepo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		uc.observeAuth("failure")
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := verifyPassword(account.HashedPassword, input.Password); err != nil {
		uc.observeAuth("failure")
		return nil, domain.ErrInvalidCredentials
	}

	access, err := uc.tokens.IssueAccessToken(account)
	if err != nil {
		return nil, err
	}
	refresh, err := uc.tokens.IssueRefreshToken(account)
	if err != nil {
		return nil, err
	}

	uc.observeAuth("success")

	account.HashedPassword = ""
	return &LoginResult{AccessToken: access, RefreshToken: refresh, Account: account}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (uc *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	accountID, err := uc.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", err
	}

	return uc.tokens.IssueAccessToken(account)
}

// RequestPasswordReset stores a one-time code for email and mails it out.
func (uc *AuthUseCase) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	if _, err := uc.accountRepo.GetByEmail(ctx, email); err != nil {
		return err
	}

	code, err := uc.cfg.OTPSource()
	if err != nil {
		return err
	}

	if err := uc.otpStore.Save(ctx, email, code, uc.cfg.OTPTTL); err != nil {
		return err
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in %s.", code, uc.cfg.OTPTTL)
	if err := uc.mailer.Send(ctx, email, "Password reset code", body); err != nil {
		uc.logger.Error().Err(err).Msg("failed to send password reset email")
		return err
	}

	return nil
}

// ResetPasswordInput represents input for completing a password reset.
type ResetPasswordInput struct {
	Email       string
	OTP         string
	NewPassword string
}

// ResetPassword checks the one-time code and replaces the password.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := domain.ValidatePassword(input.NewPassword); err != nil {
		return err
	}

	email := domain.NormalizeEmail(input.Email)
	account, err := uc.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidOTP
		}
		return err
	}

	if err := uc.otpStore.Consume(ctx, email, input.OTP); err != nil {
		return err
	}

	hashedPassword, err := hashPassword(input.NewPassword)
	if err != nil {
		return err
	}

	return uc.accountRepo.UpdatePassword(ctx, account.ID, hashedPassword, time.Now().UTC())
}

func (uc *AuthUseCase) observeAuth(status string) {
	if uc.metrics != nil {
		uc.metrics.AuthAttempts.WithLabelValues(status).Inc()
	}
}

// GenerateAccountNumber returns a uniformly random number in [100000000, 999999999].
func GenerateAccountNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000000))
	if err != nil {
		return "", err
	}
	return n.Add(n, big.NewInt(100000000)).String(), nil
}

// GenerateOTP returns a zero-padded 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword verifies a password against a hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
