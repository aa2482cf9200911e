package tweets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ivankudzin/vidshare/internal/domain/rules"
	"github.com/ivankudzin/vidshare/internal/pkg/validate"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("tweet not found")
	ErrForbidden  = errors.New("tweet is owned by another user")
)

type Tweet struct {
	ID        int64
	OwnerID   int64
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Store interface {
	Create(ctx context.Context, ownerID int64, content string) (Tweet, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Tweet, error)
	FindByID(ctx context.Context, id int64) (Tweet, error)
	UpdateContent(ctx context.Context, id int64, content string) (Tweet, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, ownerID int64, content string) (Tweet, error) {
	if ownerID <= 0 || !validate.Required(content) {
		return Tweet{}, ErrValidation
	}
	return s.store.Create(ctx, ownerID, strings.TrimSpace(content))
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]Tweet, error) {
	if ownerID <= 0 {
		return nil, ErrValidation
	}
	return s.store.ListByOwner(ctx, ownerID)
}

func (s *Service) Update(ctx context.Context, actingUserID, tweetID int64, content string) (Tweet, error) {
	if actingUserID <= 0 || tweetID <= 0 || !validate.Required(content) {
		return Tweet{}, ErrValidation
	}

	tweet, err := s.store.FindByID(ctx, tweetID)
	if err != nil {
		return Tweet{}, err
	}
	if !rules.OwnedBy(tweet.OwnerID, actingUserID) {
		return Tweet{}, ErrForbidden
	}

	return s.store.UpdateContent(ctx, tweetID, strings.TrimSpace(content))
}

func (s *Service) Delete(ctx context.Context, actingUserID, tweetID int64) error {
	if actingUserID <= 0 || tweetID <= 0 {
		return ErrValidation
	}

	tweet, err := s.store.FindByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if !rules.OwnedBy(tweet.OwnerID, actingUserID) {
		return ErrForbidden
	}

	return s.store.Delete(ctx, tweetID)
}
