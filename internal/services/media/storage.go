package media

import (
	"context"
	"errors"
)

type ResourceKind string

const (
	KindAuto  ResourceKind = "auto"
	KindImage ResourceKind = "image"
	KindVideo ResourceKind = "video"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUploadFailed      = errors.New("remote upload failed")
	ErrPersistenceFailed = errors.New("persistence failed after upload")
)

// RemoteObject is what the remote store hands back for a completed upload.
// Duration is only populated for video content the store could probe; zero
// otherwise.
type RemoteObject struct {
	Key      string
	URL      string
	Duration float64
}

type RemoteStorage interface {
	Upload(ctx context.Context, localPath string, kind ResourceKind) (RemoteObject, error)
	Delete(ctx context.Context, key string) error
}

// Asset describes one staged local file destined for remote storage.
// Optional assets with an empty LocalPath are skipped by the orchestrator.
type Asset struct {
	Role      string
	LocalPath string
	Kind      ResourceKind
	Optional  bool
}

type Uploaded struct {
	Asset  Asset
	Remote RemoteObject
}
