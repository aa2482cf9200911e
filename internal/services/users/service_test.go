package users

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mediasvc "github.com/ivankudzin/vidshare/internal/services/media"
)

type fakeRemote struct {
	uploads []string
	deletes []string
	nextKey int
}

func (f *fakeRemote) Upload(_ context.Context, localPath string, _ mediasvc.ResourceKind) (mediasvc.RemoteObject, error) {
	f.nextKey++
	key := fmt.Sprintf("obj-%d", f.nextKey)
	f.uploads = append(f.uploads, localPath)
	return mediasvc.RemoteObject{Key: key, URL: "https://media.local/" + key}, nil
}

func (f *fakeRemote) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

type fakeStore struct {
	users     map[int64]User
	nextID    int64
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]User{}}
}

func (f *fakeStore) Create(_ context.Context, user NewUser) (User, error) {
	if f.createErr != nil {
		return User{}, f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return User{}, ErrConflict
		}
	}
	f.nextID++
	record := User{
		ID:           f.nextID,
		Username:     user.Username,
		Email:        user.Email,
		Fullname:     user.Fullname,
		PasswordHash: user.PasswordHash,
		AvatarURL:    user.AvatarURL,
		AvatarKey:    user.AvatarKey,
		CoverURL:     user.CoverURL,
		CoverKey:     user.CoverKey,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	f.users[record.ID] = record
	return record, nil
}

func (f *fakeStore) FindByID(_ context.Context, id int64) (User, error) {
	user, ok := f.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) FindByUsernameOrEmail(_ context.Context, username, email string) (User, error) {
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (f *fakeStore) UpdateDetails(_ context.Context, id int64, fullname, email string) (User, error) {
	user, ok := f.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	user.Fullname = fullname
	user.Email = email
	f.users[id] = user
	return user, nil
}

func (f *fakeStore) UpdateAvatar(_ context.Context, id int64, url, key string) (User, error) {
	user, ok := f.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	user.AvatarURL = url
	user.AvatarKey = key
	f.users[id] = user
	return user, nil
}

func (f *fakeStore) UpdateCover(_ context.Context, id int64, url, key string) (User, error) {
	user, ok := f.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	user.CoverURL = url
	user.CoverKey = key
	f.users[id] = user
	return user, nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	f.users[id] = user
	return nil
}

func newTestService(store *fakeStore, remote *fakeRemote) *Service {
	orch := mediasvc.NewOrchestrator(remote, zap.NewNop())
	return NewService(store, remote, orch, zap.NewNop(), Config{BcryptCost: bcrypt.MinCost})
}

func stageFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))
	return path
}

func registerInput(t *testing.T, withCover bool) RegisterInput {
	t.Helper()
	input := RegisterInput{
		Username:   "Alice",
		Email:      "Alice@Example.com",
		Fullname:   "Alice A.",
		Password:   "s3cret",
		AvatarPath: stageFile(t, "avatar.png"),
	}
	if withCover {
		input.CoverPath = stageFile(t, "cover.jpg")
	}
	return input
}

func TestRegisterUploadsAndSanitizes(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{}
	svc := newTestService(store, remote)

	input := registerInput(t, true)
	profile, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "https://media.local/obj-1", profile.AvatarURL)
	assert.Equal(t, "https://media.local/obj-2", profile.CoverURL)

	stored := store.users[profile.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))

	_, statErr := os.Stat(input.AvatarPath)
	assert.True(t, os.IsNotExist(statErr), "staged avatar must be removed")
	_, statErr = os.Stat(input.CoverPath)
	assert.True(t, os.IsNotExist(statErr), "staged cover must be removed")
}

func TestRegisterWithoutCoverSkipsOptionalAsset(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{}
	svc := newTestService(store, remote)

	profile, err := svc.Register(context.Background(), registerInput(t, false))
	require.NoError(t, err)

	assert.Len(t, remote.uploads, 1)
	assert.Empty(t, profile.CoverURL)
}

func TestRegisterConflictNeverContactsRemoteStore(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{}
	svc := newTestService(store, remote)

	_, err := svc.Register(context.Background(), registerInput(t, true))
	require.NoError(t, err)

	input := registerInput(t, true)
	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrConflict)

	assert.Len(t, remote.uploads, 2, "no puts beyond the first registration")
	assert.Empty(t, remote.deletes)

	_, statErr := os.Stat(input.AvatarPath)
	assert.True(t, os.IsNotExist(statErr), "staged avatar removed on conflict")
	_, statErr = os.Stat(input.CoverPath)
	assert.True(t, os.IsNotExist(statErr), "staged cover removed on conflict")
}

func TestRegisterMissingAvatarFailsValidation(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{}
	svc := newTestService(store, remote)

	input := registerInput(t, true)
	input.AvatarPath = ""

	_, err := svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, remote.uploads)

	_, statErr := os.Stat(input.CoverPath)
	assert.True(t, os.IsNotExist(statErr), "staged cover removed on validation failure")
}

func TestRegisterPersistenceFailureCompensatesUploads(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("insert failed")
	remote := &fakeRemote{}
	svc := newTestService(store, remote)

	_, err := svc.Register(context.Background(), registerInput(t, true))
	require.ErrorIs(t, err, mediasvc.ErrPersistenceFailed)
	assert.Equal(t, []string{"obj-2", "obj-1"}, remote.deletes)
	assert.Empty(t, store.users)
}

func TestVerifyCredentials(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{}
	svc := newTestService(store, remote)

	_, err := svc.Register(context.Background(), registerInput(t, false))
	require.NoError(t, err)

	profile, err := svc.VerifyCredentials(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	_, err = svc.VerifyCredentials(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.VerifyCredentials(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateAvatarReplacesOldRemoteObject(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{}
	svc := newTestService(store, remote)

	profile, err := svc.Register(context.Background(), registerInput(t, false))
	require.NoError(t, err)

	updated, err := svc.UpdateAvatar(context.Background(), profile.ID, stageFile(t, "new-avatar.png"))
	require.NoError(t, err)

	assert.Equal(t, "https://media.local/obj-2", updated.AvatarURL)
	assert.Equal(t, []string{"obj-1"}, remote.deletes, "old avatar object removed after swap")
}

func TestChangePassword(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{}
	svc := newTestService(store, remote)

	profile, err := svc.Register(context.Background(), registerInput(t, false))
	require.NoError(t, err)

	require.ErrorIs(t,
		svc.ChangePassword(context.Background(), profile.ID, "wrong", "new-secret"),
		ErrInvalidCredentials,
	)
	require.NoError(t, svc.ChangePassword(context.Background(), profile.ID, "s3cret", "new-secret"))

	_, err = svc.VerifyCredentials(context.Background(), "alice", "new-secret")
	assert.NoError(t, err)
}
