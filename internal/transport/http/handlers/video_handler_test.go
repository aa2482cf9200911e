package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/vidshare/internal/services/auth"
	mediasvc "github.com/ivankudzin/vidshare/internal/services/media"
	videossvc "github.com/ivankudzin/vidshare/internal/services/videos"
	"github.com/ivankudzin/vidshare/internal/transport/http/dto"
	"github.com/ivankudzin/vidshare/internal/transport/http/upload"
)

type fakeRemote struct {
	nextKey int
	deletes []string
}

func (f *fakeRemote) Upload(_ context.Context, _ string, kind mediasvc.ResourceKind) (mediasvc.RemoteObject, error) {
	f.nextKey++
	key := fmt.Sprintf("obj-%d", f.nextKey)
	duration := 0.0
	if kind == mediasvc.KindVideo {
		duration = 12.5
	}
	return mediasvc.RemoteObject{Key: key, URL: "https://media.local/" + key, Duration: duration}, nil
}

func (f *fakeRemote) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

type fakeVideoStore struct {
	videos map[int64]videossvc.Video
	nextID int64
}

func (f *fakeVideoStore) Create(_ context.Context, video videossvc.NewVideo) (videossvc.Video, error) {
	f.nextID++
	record := videossvc.Video{
		ID:           f.nextID,
		OwnerID:      video.OwnerID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		VideoKey:     video.VideoKey,
		ThumbnailURL: video.ThumbnailURL,
		ThumbnailKey: video.ThumbnailKey,
		Duration:     video.Duration,
		Views:        video.Views,
		IsPublished:  video.IsPublished,
		CreatedAt:    time.Now().UTC(),
	}
	f.videos[record.ID] = record
	return record, nil
}

func (f *fakeVideoStore) FindByID(_ context.Context, id int64) (videossvc.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return videossvc.Video{}, videossvc.ErrNotFound
	}
	return video, nil
}

func (f *fakeVideoStore) UpdateMeta(_ context.Context, id int64, title, description, thumbnailURL, thumbnailKey string) (videossvc.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return videossvc.Video{}, videossvc.ErrNotFound
	}
	video.Title = title
	video.Description = description
	video.ThumbnailURL = thumbnailURL
	video.ThumbnailKey = thumbnailKey
	f.videos[id] = video
	return video, nil
}

func (f *fakeVideoStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.videos[id]; !ok {
		return videossvc.ErrNotFound
	}
	delete(f.videos, id)
	return nil
}

func newVideoRouter(t *testing.T) (*chi.Mux, *fakeVideoStore, *fakeRemote) {
	t.Helper()

	store := &fakeVideoStore{videos: map[int64]videossvc.Video{}}
	remote := &fakeRemote{}
	service := videossvc.NewService(store, remote, mediasvc.NewOrchestrator(remote, zap.NewNop()), zap.NewNop())

	staging, err := upload.NewStaging(t.TempDir(), 1<<20, 1<<20)
	require.NoError(t, err)

	handler := NewVideoHandler(service, staging)
	r := chi.NewRouter()
	r.Post("/videos", handler.Publish)
	r.Get("/videos/{id}", handler.Get)
	r.Patch("/videos/{id}", handler.Update)
	r.Delete("/videos/{id}", handler.Delete)
	return r, store, remote
}

func asUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{UserID: userID}))
}

func publishRequest(t *testing.T, title string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", title))
	require.NoError(t, writer.WriteField("description", "a description"))

	for field, name := range map[string]string{"video": "clip.mp4", "thumbnail": "thumb.jpg"} {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("payload"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/videos", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestPublishReturnsCreatedVideo(t *testing.T) {
	router, store, _ := newVideoRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(publishRequest(t, "my clip"), 7))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.VideoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "my clip", resp.Title)
	assert.Equal(t, int64(7), resp.OwnerID)
	assert.Equal(t, 12.5, resp.Duration)
	assert.True(t, resp.IsPublished)
	assert.Len(t, store.videos, 1)
}

func TestPublishWithoutTitleIsBadRequest(t *testing.T) {
	router, store, _ := newVideoRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(publishRequest(t, ""), 7))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.videos)
}

func TestGetUnknownVideoIsNotFound(t *testing.T) {
	router, _, _ := newVideoRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteByNonOwnerIsForbidden(t *testing.T) {
	router, store, remote := newVideoRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(publishRequest(t, "my clip"), 7))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodDelete, "/videos/1", nil), 8))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, store.videos, 1)
	assert.Empty(t, remote.deletes)
}

func TestDeleteByOwnerRemovesAssetsAndRecord(t *testing.T) {
	router, store, remote := newVideoRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(publishRequest(t, "my clip"), 7))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodDelete, "/videos/1", nil), 7))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.videos)
	assert.Len(t, remote.deletes, 2)
}

func TestDeleteWithoutIdentityIsUnauthorized(t *testing.T) {
	router, _, _ := newVideoRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/videos/1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
