package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"infinite-experiment/poolroster/internal/logging"
)

const adminSubject = "roster-admin"

// TokenLedger remembers consumed admin tokens.
type TokenLedger interface {
	// Consume marks tokenID as used and reports false if it already was.
	Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	IsUsed(ctx context.Context, tokenID string) (bool, error)
}

// AdminToken is a validated admin token.
type AdminToken struct {
	TokenID   string
	ExpiresAt time.Time
}

// AdminAuthService exchanges the master password for a short-lived,
// single-use token that gates destructive operations.
type AdminAuthService struct {
	passwordHash []byte
	secretKey    []byte
	ttl          time.Duration
	ledger       TokenLedger
	now          func() time.Time
}

func NewAdminAuthService(passwordHash, secretKey string, ttl time.Duration, ledger TokenLedger) *AdminAuthService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AdminAuthService{
		passwordHash: []byte(passwordHash),
		secretKey:    []byte(secretKey),
		ttl:          ttl,
		ledger:       ledger,
		now:          time.Now,
	}
}

// Enabled reports whether a master password and signing key are configured.
func (s *AdminAuthService) Enabled() bool {
	return len(s.passwordHash) > 0 && len(s.secretKey) > 0
}

// Login checks password against the configured bcrypt hash and issues a
// signed token.
func (s *AdminAuthService) Login(password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAdminDisabled
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		logging.Warn("Admin login rejected")
		return "", time.Time{}, ErrInvalidCredential
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	logging.Info("Admin token issued", "token_id", claims.ID, "expires_at", expiresAt)
	return signed, expiresAt, nil
}

// Validate parses and verifies tokenString and checks it was not consumed.
func (s *AdminAuthService) Validate(ctx context.Context, tokenString string) (*AdminToken, error) {
	if !s.Enabled() {
		return nil, ErrAdminDisabled
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}

	used, err := s.ledger.IsUsed(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, fmt.Errorf("%w: already used", ErrInvalidToken)
	}

	return &AdminToken{TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Consume spends the token. Only the first caller succeeds.
func (s *AdminAuthService) Consume(ctx context.Context, token *AdminToken) error {
	if token == nil {
		return ErrInvalidToken
	}

	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("%w: expired", ErrInvalidToken)
	}

	ok, err := s.ledger.Consume(ctx, token.TokenID, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: already used", ErrInvalidToken)
	}
	return nil
}

// IsAuthError reports whether err should be answered with 401/403.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredential) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrAdminDisabled)
}
