package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

// DurationProber reports the playback length of a local media file in
// seconds. Optional; without one every upload reports duration 0.
type DurationProber interface {
	Probe(ctx context.Context, localPath string) (float64, error)
}

type S3Storage struct {
	client *minio.Client
	bucket string
	prober DurationProber

	ensureOnce sync.Once
	ensureErr  error
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

func (s *S3Storage) AttachProber(prober DurationProber) {
	s.prober = prober
}

func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		s.ensureErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", s.bucket, s.ensureErr)
	}

	return nil
}

func (s *S3Storage) Upload(ctx context.Context, localPath string, kind ResourceKind) (RemoteObject, error) {
	if s.client == nil {
		return RemoteObject{}, fmt.Errorf("s3 client is nil")
	}
	if localPath == "" {
		return RemoteObject{}, ErrValidation
	}

	if err := s.EnsureBucket(ctx); err != nil {
		return RemoteObject{}, err
	}

	contentType := contentTypeFor(localPath)
	resolved := resolveKind(kind, contentType)

	key, err := buildObjectKey(resolved, localPath)
	if err != nil {
		return RemoteObject{}, fmt.Errorf("build object key: %w", err)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return RemoteObject{}, fmt.Errorf("open staged file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return RemoteObject{}, fmt.Errorf("stat staged file: %w", err)
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, file, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return RemoteObject{}, fmt.Errorf("put object to s3: %w", err)
	}

	duration := 0.0
	if resolved == KindVideo && s.prober != nil {
		if d, probeErr := s.prober.Probe(ctx, localPath); probeErr == nil && d > 0 {
			duration = d
		}
	}

	return RemoteObject{
		Key:      key,
		URL:      s.objectURL(key),
		Duration: duration,
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if s.client == nil || key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *S3Storage) objectURL(key string) string {
	endpoint := s.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", endpoint.Scheme, endpoint.Host, s.bucket, key)
}

func contentTypeFor(localPath string) string {
	ct := mime.TypeByExtension(strings.ToLower(path.Ext(localPath)))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

func resolveKind(kind ResourceKind, contentType string) ResourceKind {
	if kind != KindAuto && kind != "" {
		return kind
	}
	if strings.HasPrefix(contentType, "video/") {
		return KindVideo
	}
	return KindImage
}

func buildObjectKey(kind ResourceKind, localPath string) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(strings.TrimSpace(localPath)))
	if ext == "" {
		ext = ".bin"
	}

	prefix := "images"
	if kind == KindVideo {
		prefix = "videos"
	}

	stamp := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s/%s_%s%s", prefix, stamp, hex.EncodeToString(rnd), ext), nil
}
