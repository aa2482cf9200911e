package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/ivankudzin/vidshare/internal/services/auth"
)

const (
	refreshPrefix     = "refresh:"
	userRefreshPrefix = "user_refresh:"
)

// TokenRepo stores one refresh token per user under two keys: token -> user
// for lookup and user -> token for the currently-valid check. Save replaces
// both, so the previous token dies with the write.
type TokenRepo struct {
	client *goredis.Client
}

func NewTokenRepo(client *goredis.Client) *TokenRepo {
	return &TokenRepo{client: client}
}

func (r *TokenRepo) Save(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || strings.TrimSpace(token) == "" || ttl <= 0 {
		return authsvc.ErrInvalidInput
	}

	old, err := r.client.Get(ctx, userRefreshKey(userID)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("get current refresh token: %w", err)
	}

	pipe := r.client.TxPipeline()
	if old != "" {
		pipe.Del(ctx, refreshKey(old))
	}
	pipe.Set(ctx, refreshKey(token), userID, ttl)
	pipe.Set(ctx, userRefreshKey(userID), token, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}

	return nil
}

func (r *TokenRepo) Lookup(ctx context.Context, token string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	value, err := r.client.Get(ctx, refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, authsvc.ErrRefreshNotFound
		}
		return 0, fmt.Errorf("lookup refresh token: %w", err)
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil || userID <= 0 {
		return 0, authsvc.ErrRefreshNotFound
	}

	return userID, nil
}

func (r *TokenRepo) Current(ctx context.Context, userID int64) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}

	token, err := r.client.Get(ctx, userRefreshKey(userID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", authsvc.ErrRefreshNotFound
		}
		return "", fmt.Errorf("get current refresh token: %w", err)
	}

	return token, nil
}

func (r *TokenRepo) Delete(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	token, err := r.client.Get(ctx, userRefreshKey(userID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("get current refresh token: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, refreshKey(token))
	pipe.Del(ctx, userRefreshKey(userID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	return nil
}

func refreshKey(token string) string {
	return refreshPrefix + token
}

func userRefreshKey(userID int64) string {
	return userRefreshPrefix + strconv.FormatInt(userID, 10)
}
