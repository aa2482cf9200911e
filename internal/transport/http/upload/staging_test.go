package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, field, filename, payload string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImageStagesFileWithPrefixAndExtension(t *testing.T) {
	dir := t.TempDir()
	staging, err := NewStaging(dir, 1<<20, 1<<20)
	require.NoError(t, err)

	path, err := staging.Image(multipartRequest(t, "avatar", "me.PNG", "image-bytes"), "avatar")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), FilePrefix))
	assert.Equal(t, ".PNG", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}

func TestImageRejectsOversizedFile(t *testing.T) {
	staging, err := NewStaging(t.TempDir(), 4, 1<<20)
	require.NoError(t, err)

	_, err = staging.Image(multipartRequest(t, "avatar", "me.png", "way too big"), "avatar")
	require.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(staging.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "no staged leftovers after a rejected upload")
}

func TestOptionalImageToleratesMissingField(t *testing.T) {
	staging, err := NewStaging(t.TempDir(), 1<<20, 1<<20)
	require.NoError(t, err)

	path, err := staging.OptionalImage(multipartRequest(t, "avatar", "me.png", "x"), "coverImg")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestImageFailsOnMissingRequiredField(t *testing.T) {
	staging, err := NewStaging(t.TempDir(), 1<<20, 1<<20)
	require.NoError(t, err)

	_, err = staging.Image(multipartRequest(t, "other", "me.png", "x"), "avatar")
	assert.True(t, errors.Is(err, http.ErrMissingFile))
}

func TestNewStagingCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "staging")
	_, err := NewStaging(dir, 1, 1)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
