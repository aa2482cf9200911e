package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRefreshNotFound = errors.New("refresh token not found")
)

type AccessClaims struct {
	UserID    int64
	ExpiresAt time.Time
}

type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
}
