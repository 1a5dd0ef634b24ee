package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const loginWindow = time.Minute

// AuthConfig controls token issuance and login throttling
type AuthConfig struct {
	Secret            []byte
	TokenTTL          time.Duration
	AttemptsPerMinute int
}

// AuthService issues and checks bearer tokens. Tokens are signed JWTs
// whose jti must also be live in the token store, so logout revokes them.
type AuthService struct {
	users   UserStore
	tokens  TokenStore
	limiter RateLimiter
	cfg     AuthConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, limiter RateLimiter, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		limiter: limiter,
		cfg:     cfg,
		logger:  util.ComponentLogger("auth"),
		now:     time.Now,
	}
}

// RegisterRequest creates a customer account
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"max=32"`
	Password string `json:"password" validate:"required,min=8,max=72" trim:"-"`
}

// LoginRequest carries credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required" trim:"-"`
}

// TokenResponse is returned after a successful login
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Register creates an active customer and logs them in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        optional(req.Phone),
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		Status:       models.UserStatusActive,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, mapStoreError(err)
	}

	s.logger.Info("Customer registered", zap.Int64("user_id", u.ID))
	return s.issue(ctx, u)
}

// Login authenticates an active customer.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	return s.login(ctx, req, models.RoleCustomer)
}

// AdminLogin authenticates an administrator.
func (s *AuthService) AdminLogin(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	return s.login(ctx, req, models.RoleAdmin)
}

func (s *AuthService) login(ctx context.Context, req LoginRequest, role string) (*TokenResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	if err := validateStruct(&req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	throttleKey := "login:" + role + ":" + email
	if s.limiter != nil && s.cfg.AttemptsPerMinute > 0 {
		allowed, err := s.limiter.Allow(ctx, throttleKey, s.cfg.AttemptsPerMinute, loginWindow)
		if err != nil {
			s.logger.Warn("Login throttle unavailable", zap.Error(err))
		} else if !allowed {
			util.LoginFailuresTotal.WithLabelValues(role, "throttled").Inc()
			return nil, ErrTooManyAttempts
		}
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		util.LoginFailuresTotal.WithLabelValues(role, "unknown_user").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, mapStoreError(err)
	}

	if u.Role != role || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		util.LoginFailuresTotal.WithLabelValues(role, "bad_credentials").Inc()
		return nil, ErrInvalidCredentials
	}
	if u.Status != models.UserStatusActive {
		util.LoginFailuresTotal.WithLabelValues(role, "inactive").Inc()
		return nil, ErrAccountInactive
	}

	if s.limiter != nil {
		if err := s.limiter.ResetWindow(ctx, throttleKey); err != nil {
			s.logger.Warn("Failed to reset login throttle", zap.Error(err))
		}
	}
	return s.issue(ctx, u)
}

func (s *AuthService) issue(ctx context.Context, u *models.User) (*TokenResponse, error) {
	now := s.now()
	rec := &models.AccessToken{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		Role:      u.Role,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	}

	claims := tokenClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rec.ID,
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(rec.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.tokens.CreateAccessToken(ctx, rec); err != nil {
		return nil, mapStoreError(err)
	}

	return &TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   rec.ExpiresAt,
		User:        u,
	}, nil
}

// Authenticate resolves a bearer token to the caller's identity.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrUnauthorized
	}

	rec, err := s.tokens.GetAccessToken(ctx, claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, mapStoreError(err)
	}
	if rec.RevokedAt != nil || !s.now().Before(rec.ExpiresAt) {
		return nil, ErrUnauthorized
	}

	return &models.Identity{UserID: rec.UserID, Role: rec.Role, TokenID: rec.ID}, nil
}

// Logout revokes the token behind the identity.
func (s *AuthService) Logout(ctx context.Context, id *models.Identity) error {
	return mapStoreError(s.tokens.RevokeAccessToken(ctx, id.TokenID, s.now()))
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, id *models.Identity) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id.UserID)
	return u, mapStoreError(err)
}
