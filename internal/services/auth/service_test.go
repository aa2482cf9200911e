package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTokenStore struct {
	byUser  map[int64]string
	byToken map[string]int64
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		byUser:  map[int64]string{},
		byToken: map[string]int64{},
	}
}

func (f *fakeTokenStore) Save(_ context.Context, userID int64, token string, _ time.Duration) error {
	if old, ok := f.byUser[userID]; ok {
		delete(f.byToken, old)
	}
	f.byUser[userID] = token
	f.byToken[token] = userID
	return nil
}

func (f *fakeTokenStore) Lookup(_ context.Context, token string) (int64, error) {
	userID, ok := f.byToken[token]
	if !ok {
		return 0, ErrRefreshNotFound
	}
	return userID, nil
}

func (f *fakeTokenStore) Current(_ context.Context, userID int64) (string, error) {
	token, ok := f.byUser[userID]
	if !ok {
		return "", ErrRefreshNotFound
	}
	return token, nil
}

func (f *fakeTokenStore) Delete(_ context.Context, userID int64) error {
	if old, ok := f.byUser[userID]; ok {
		delete(f.byToken, old)
		delete(f.byUser, userID)
	}
	return nil
}

func newTestService() (*Service, *fakeTokenStore) {
	store := newFakeTokenStore()
	svc := NewService(NewJWTManager("test-secret", time.Minute), store, 48*time.Hour)
	return svc, store
}

func TestIssueAndValidate(t *testing.T) {
	svc, _ := newTestService()

	pair, err := svc.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("unexpected user id: %d", claims.UserID)
	}
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for rotated-away token, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("current token must still refresh: %v", err)
	}
}

func TestIssueInvalidatesPreviousRefreshToken(t *testing.T) {
	svc, _ := newTestService()

	first, err := svc.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	if _, err := svc.Issue(context.Background(), 7); err != nil {
		t.Fatalf("reissue tokens: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after reissue, got %v", err)
	}
}

func TestLogoutDropsRefreshToken(t *testing.T) {
	svc, _ := newTestService()

	pair, err := svc.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	if err := svc.Logout(context.Background(), 7); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestValidateRejectsGarbageToken(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.ValidateAccessToken("not-a-jwt"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Minute)
	manager.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	svc := NewService(manager, newFakeTokenStore(), 48*time.Hour)

	pair, err := svc.Issue(context.Background(), 7)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	if _, err := svc.ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}
