package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ivankudzin/vidshare/internal/pkg/validate"
	mediasvc "github.com/ivankudzin/vidshare/internal/services/media"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("username or email already taken")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const (
	roleAvatar = "avatar"
	roleCover  = "coverImg"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	Fullname     string
	PasswordHash string
	AvatarURL    string
	AvatarKey    string
	CoverURL     string
	CoverKey     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the outward shape of a user: password hash and token state
// never leave this package.
type Profile struct {
	ID        int64
	Username  string
	Email     string
	Fullname  string
	AvatarURL string
	CoverURL  string
	CreatedAt time.Time
}

type NewUser struct {
	Username     string
	Email        string
	Fullname     string
	PasswordHash string
	AvatarURL    string
	AvatarKey    string
	CoverURL     string
	CoverKey     string
}

type Store interface {
	Create(ctx context.Context, user NewUser) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (User, error)
	UpdateDetails(ctx context.Context, id int64, fullname, email string) (User, error)
	UpdateAvatar(ctx context.Context, id int64, url, key string) (User, error)
	UpdateCover(ctx context.Context, id int64, url, key string) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type Config struct {
	BcryptCost int
}

type Service struct {
	store        Store
	storage      mediasvc.RemoteStorage
	orchestrator *mediasvc.Orchestrator
	logger       *zap.Logger
	bcryptCost   int
}

func NewService(store Store, storage mediasvc.RemoteStorage, orchestrator *mediasvc.Orchestrator, logger *zap.Logger, cfg Config) *Service {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:        store,
		storage:      storage,
		orchestrator: orchestrator,
		logger:       logger,
		bcryptCost:   cost,
	}
}

type RegisterInput struct {
	Username   string
	Email      string
	Fullname   string
	Password   string
	AvatarPath string
	CoverPath  string
}

// Register stages exactly one required avatar and an optional cover image.
// The duplicate identity check runs before any remote put: on conflict the
// staged files are removed and the remote store is never contacted.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Profile, error) {
	if s.store == nil || s.orchestrator == nil {
		return Profile{}, fmt.Errorf("users dependencies are not configured")
	}

	assets := []mediasvc.Asset{
		{Role: roleAvatar, LocalPath: input.AvatarPath, Kind: mediasvc.KindImage},
		{Role: roleCover, LocalPath: input.CoverPath, Kind: mediasvc.KindImage, Optional: true},
	}

	if !validate.Required(input.Username, input.Email, input.Fullname, input.Password) {
		s.orchestrator.CleanupStaged(assets)
		return Profile{}, ErrValidation
	}
	if input.AvatarPath == "" {
		s.orchestrator.CleanupStaged(assets)
		return Profile{}, fmt.Errorf("avatar file is required: %w", ErrValidation)
	}

	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := s.store.FindByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil:
		s.orchestrator.CleanupStaged(assets)
		return Profile{}, ErrConflict
	case !errors.Is(err, ErrNotFound):
		s.orchestrator.CleanupStaged(assets)
		return Profile{}, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.orchestrator.CleanupStaged(assets)
		return Profile{}, fmt.Errorf("hash password: %w", err)
	}

	var created User
	err = s.orchestrator.Run(ctx, assets, func(ctx context.Context, uploaded []mediasvc.Uploaded) error {
		byRole := uploadedByRole(uploaded)
		avatar := byRole[roleAvatar]
		cover := byRole[roleCover]

		user, createErr := s.store.Create(ctx, NewUser{
			Username:     username,
			Email:        email,
			Fullname:     strings.TrimSpace(input.Fullname),
			PasswordHash: string(hash),
			AvatarURL:    avatar.URL,
			AvatarKey:    avatar.Key,
			CoverURL:     cover.URL,
			CoverKey:     cover.Key,
		})
		if createErr != nil {
			return createErr
		}
		created = user
		return nil
	})
	if err != nil {
		return Profile{}, err
	}

	return sanitize(created), nil
}

// VerifyCredentials resolves a username-or-email identifier and compares the
// password. Token issuance is the auth service's job; the transport layer
// wires the two together.
func (s *Service) VerifyCredentials(ctx context.Context, identifier, password string) (Profile, error) {
	if !validate.Required(identifier, password) {
		return Profile{}, ErrValidation
	}

	lookup := strings.ToLower(strings.TrimSpace(identifier))
	user, err := s.store.FindByUsernameOrEmail(ctx, lookup, lookup)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Profile{}, ErrInvalidCredentials
	}

	return sanitize(user), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Profile, error) {
	if id <= 0 {
		return Profile{}, ErrValidation
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}

	return sanitize(user), nil
}

func (s *Service) UpdateDetails(ctx context.Context, id int64, fullname, email string) (Profile, error) {
	if id <= 0 || !validate.Required(fullname, email) {
		return Profile{}, ErrValidation
	}

	user, err := s.store.UpdateDetails(ctx, id, strings.TrimSpace(fullname), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return Profile{}, err
	}

	return sanitize(user), nil
}

// UpdateAvatar puts the new image first and only then overwrites the stored
// reference; the previous remote object is removed best-effort afterwards.
func (s *Service) UpdateAvatar(ctx context.Context, id int64, stagedPath string) (Profile, error) {
	return s.replaceImage(ctx, id, stagedPath, roleAvatar)
}

func (s *Service) UpdateCover(ctx context.Context, id int64, stagedPath string) (Profile, error) {
	return s.replaceImage(ctx, id, stagedPath, roleCover)
}

func (s *Service) replaceImage(ctx context.Context, id int64, stagedPath, role string) (Profile, error) {
	if id <= 0 || stagedPath == "" {
		s.orchestrator.CleanupStaged([]mediasvc.Asset{{Role: role, LocalPath: stagedPath}})
		return Profile{}, ErrValidation
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		s.orchestrator.CleanupStaged([]mediasvc.Asset{{Role: role, LocalPath: stagedPath}})
		return Profile{}, err
	}

	oldKey := current.AvatarKey
	if role == roleCover {
		oldKey = current.CoverKey
	}

	var updated User
	err = s.orchestrator.Run(ctx, []mediasvc.Asset{
		{Role: role, LocalPath: stagedPath, Kind: mediasvc.KindImage},
	}, func(ctx context.Context, uploaded []mediasvc.Uploaded) error {
		remote := uploaded[0].Remote

		var updateErr error
		if role == roleCover {
			updated, updateErr = s.store.UpdateCover(ctx, id, remote.URL, remote.Key)
		} else {
			updated, updateErr = s.store.UpdateAvatar(ctx, id, remote.URL, remote.Key)
		}
		return updateErr
	})
	if err != nil {
		return Profile{}, err
	}

	if oldKey != "" {
		if delErr := s.storage.Delete(ctx, oldKey); delErr != nil {
			s.logger.Warn("delete replaced image failed",
				zap.Int64("user_id", id),
				zap.String("key", oldKey),
				zap.Error(delErr),
			)
		}
	}

	return sanitize(updated), nil
}

func (s *Service) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	if id <= 0 || !validate.Required(currentPassword, newPassword) {
		return ErrValidation
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func sanitize(user User) Profile {
	return Profile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Fullname:  user.Fullname,
		AvatarURL: user.AvatarURL,
		CoverURL:  user.CoverURL,
		CreatedAt: user.CreatedAt,
	}
}

func uploadedByRole(uploaded []mediasvc.Uploaded) map[string]mediasvc.RemoteObject {
	byRole := make(map[string]mediasvc.RemoteObject, len(uploaded))
	for _, u := range uploaded {
		byRole[u.Asset.Role] = u.Remote
	}
	return byRole
}
