package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FilePrefix marks files staged by this package so the sweeper can tell
// them apart from anything else living in the staging directory.
const FilePrefix = "staged_"

var ErrFileTooLarge = errors.New("uploaded file exceeds the size limit")

// Staging writes multipart uploads to the local staging directory before the
// orchestrated remote put. Every staged file is named with the staging prefix
// and a fresh UUID; the original filename only contributes its extension.
type Staging struct {
	dir          string
	maxImageSize int64
	maxVideoSize int64
}

func NewStaging(dir string, maxImageSize, maxVideoSize int64) (*Staging, error) {
	if dir == "" {
		return nil, fmt.Errorf("staging dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	return &Staging{
		dir:          dir,
		maxImageSize: maxImageSize,
		maxVideoSize: maxVideoSize,
	}, nil
}

func (s *Staging) Dir() string { return s.dir }

func (s *Staging) MaxImageSize() int64 { return s.maxImageSize }

func (s *Staging) MaxVideoSize() int64 { return s.maxVideoSize }

// Image stages the named form file and returns its local path. A missing
// field is an error; use OptionalImage when the field may be absent.
func (s *Staging) Image(r *http.Request, field string) (string, error) {
	return s.save(r, field, s.maxImageSize)
}

// OptionalImage behaves like Image but returns an empty path, not an error,
// when the field is absent from the form.
func (s *Staging) OptionalImage(r *http.Request, field string) (string, error) {
	path, err := s.save(r, field, s.maxImageSize)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	return path, err
}

func (s *Staging) Video(r *http.Request, field string) (string, error) {
	return s.save(r, field, s.maxVideoSize)
}

func (s *Staging) save(r *http.Request, field string, limit int64) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		return "", fmt.Errorf("form file %q is empty", field)
	}
	if limit > 0 && header.Size > limit {
		return "", fmt.Errorf("form file %q: %w", field, ErrFileTooLarge)
	}

	return s.writeStaged(file, header, limit)
}

func (s *Staging) writeStaged(src multipart.File, header *multipart.FileHeader, limit int64) (string, error) {
	name := FilePrefix + uuid.NewString() + filepath.Ext(header.Filename)
	path := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	reader := io.Reader(src)
	if limit > 0 {
		// header.Size can lie; cap the copy one byte past the limit to detect it.
		reader = io.LimitReader(src, limit+1)
	}

	written, err := io.Copy(dst, reader)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if limit > 0 && written > limit {
		_ = os.Remove(path)
		return "", ErrFileTooLarge
	}

	return path, nil
}
