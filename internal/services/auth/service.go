package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	MinRefreshTTL = 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour
)

// TokenStore keeps the single active refresh token per user. Saving a new
// token atomically invalidates the previous one.
type TokenStore interface {
	Save(ctx context.Context, userID int64, token string, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (int64, error)
	Current(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, userID int64) error
}

type Service struct {
	jwt        *JWTManager
	tokens     TokenStore
	refreshTTL time.Duration
}

func NewService(jwtManager *JWTManager, tokens TokenStore, refreshTTL time.Duration) *Service {
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}

	return &Service{
		jwt:        jwtManager,
		tokens:     tokens,
		refreshTTL: refreshTTL,
	}
}

// Issue creates a fresh access/refresh pair for the user. Any previously
// issued refresh token stops working: only one is stored per user.
func (s *Service) Issue(ctx context.Context, userID int64) (TokenPair, error) {
	if userID <= 0 {
		return TokenPair{}, ErrInvalidInput
	}

	refreshToken, err := NewRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokens.Save(ctx, userID, refreshToken, s.refreshTTL); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate access token: %w", err)
	}

	return TokenPair{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
	}, nil
}

// Refresh trades a previously issued refresh token for a new pair. The
// incoming token must match the one currently stored against the user;
// anything else, including a token already rotated away, is unauthorized.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return TokenPair{}, ErrInvalidInput
	}

	userID, err := s.tokens.Lookup(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	current, err := s.tokens.Current(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, fmt.Errorf("load current refresh token: %w", err)
	}
	if current != refreshToken {
		return TokenPair{}, ErrUnauthorized
	}

	return s.Issue(ctx, userID)
}

func (s *Service) Logout(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	if err := s.tokens.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}
	return claims, nil
}
