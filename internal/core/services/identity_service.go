package services

import (
	"context"
	"errors"
	"strings"

	"investorconnect/internal/adapters/persistence/models"
	"investorconnect/internal/adapters/persistence/repositories"
	"investorconnect/internal/config"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/pkg/jwt"
	"investorconnect/internal/pkg/metrics"
	"investorconnect/internal/pkg/password"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Identity errors
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// IdentityService handles account and session business logic
type IdentityService struct {
	accountRepo      repositories.AccountRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              *config.Config
	log              *zap.Logger
}

// NewIdentityService creates a new identity service
func NewIdentityService(
	accountRepo repositories.AccountRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
	log *zap.Logger,
) *IdentityService {
	return &IdentityService{
		accountRepo:      accountRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
		log:              log,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         domain.Identity `json:"user"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int             `json:"expires_in"`
}

// Register creates an account and signs it in
func (s *IdentityService) Register(ctx context.Context, input *RegisterInput) (resp *AuthResponse, err error) {
	defer func() { metrics.AuthEvents.WithLabelValues("register", metrics.OutcomeOf(err)).Inc() }()

	email := normalizeEmail(input.Email)

	// 1. Validate input
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	// 2. Check if email already exists
	exists, err := s.accountRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailInUse
	}

	// 3. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 4. Create account
	account := &models.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  strings.TrimSpace(input.DisplayName),
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	// 5. Issue tokens
	resp, err = s.issue(ctx, account)
	if err != nil {
		return nil, err
	}

	s.log.Info("account registered", zap.String("uid", account.ID))
	return resp, nil
}

// Login authenticates an account by email and password
func (s *IdentityService) Login(ctx context.Context, input *LoginInput) (resp *AuthResponse, err error) {
	defer func() { metrics.AuthEvents.WithLabelValues("login", metrics.OutcomeOf(err)).Inc() }()

	// 1. Find account by email
	account, err := s.accountRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// 3. Check if account is enabled
	if account.Disabled {
		return nil, ErrAccountDisabled
	}

	// 4. Issue tokens
	resp, err = s.issue(ctx, account)
	if err != nil {
		return nil, err
	}

	s.log.Info("account signed in", zap.String("uid", account.ID))
	return resp, nil
}

// RefreshToken rotates a refresh token and returns a new pair
func (s *IdentityService) RefreshToken(ctx context.Context, refreshToken string) (resp *AuthResponse, err error) {
	defer func() { metrics.AuthEvents.WithLabelValues("refresh", metrics.OutcomeOf(err)).Inc() }()

	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	// 2. Find token in DB by hash
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// 3. Check revoked / expired
	if storedToken.IsRevoked() {
		// a rotated token presented again ends every session of the account
		if err := s.refreshTokenRepo.RevokeAllByAccountID(ctx, storedToken.AccountID); err != nil {
			s.log.Warn("failed to revoke sessions after token reuse", zap.String("uid", storedToken.AccountID), zap.Error(err))
		} else {
			s.log.Warn("revoked refresh token reused", zap.String("uid", storedToken.AccountID))
		}
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	// 4. Get account
	account, err := s.accountRepo.GetByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if account.Disabled {
		return nil, ErrAccountDisabled
	}

	// 5. Revoke old refresh token (token rotation)
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, storedToken.TokenHash); err != nil {
		return nil, err
	}

	// 6. Issue new tokens
	resp, err = s.issue(ctx, account)
	if err != nil {
		return nil, err
	}

	s.log.Debug("refresh token rotated", zap.String("uid", account.ID))
	return resp, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *IdentityService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}
	metrics.AuthEvents.WithLabelValues("logout", metrics.OutcomeOK).Inc()
	s.log.Debug("refresh token revoked")
	return nil
}

// GetAccount returns the identity for uid
func (s *IdentityService) GetAccount(ctx context.Context, uid string) (domain.Identity, error) {
	account, err := s.accountRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, ErrAccountNotFound
		}
		return domain.Identity{}, err
	}
	return account.ToIdentity(), nil
}

// UpdateProfile sets the display name
func (s *IdentityService) UpdateProfile(ctx context.Context, uid, displayName string) (domain.Identity, error) {
	account, err := s.accountRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, ErrAccountNotFound
		}
		return domain.Identity{}, err
	}

	account.DisplayName = strings.TrimSpace(displayName)
	if err := s.accountRepo.Update(ctx, account); err != nil {
		return domain.Identity{}, err
	}

	s.log.Info("display name updated", zap.String("uid", uid))
	return account.ToIdentity(), nil
}

// ValidateAccessToken validates an access token
func (s *IdentityService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// issue generates a token pair, stores the refresh token and builds the response
func (s *IdentityService) issue(ctx context.Context, account *models.Account) (*AuthResponse, error) {
	tokens, err := s.generateTokens(account)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, account.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:         account.ToIdentity(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    s.cfg.JWT.AccessTokenMins * 60,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *IdentityService) generateTokens(account *models.Account) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		account.ID,
		account.Email,
		account.DisplayName,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		account.ID,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token hash in the database
func (s *IdentityService) storeRefreshToken(ctx context.Context, accountID, refreshToken string) error {
	token := &models.RefreshToken{
		AccountID: accountID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.refreshTokenRepo.Create(ctx, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
