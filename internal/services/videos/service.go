package videos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/vidshare/internal/domain/rules"
	"github.com/ivankudzin/vidshare/internal/pkg/validate"
	mediasvc "github.com/ivankudzin/vidshare/internal/services/media"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("video not found")
	ErrForbidden  = errors.New("video is owned by another user")
)

const (
	roleVideo     = "video"
	roleThumbnail = "thumbnail"
)

type Video struct {
	ID           int64
	OwnerID      int64
	Title        string
	Description  string
	VideoURL     string
	VideoKey     string
	ThumbnailURL string
	ThumbnailKey string
	Duration     float64
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type NewVideo struct {
	OwnerID      int64
	Title        string
	Description  string
	VideoURL     string
	VideoKey     string
	ThumbnailURL string
	ThumbnailKey string
	Duration     float64
	Views        int64
	IsPublished  bool
}

type Store interface {
	Create(ctx context.Context, video NewVideo) (Video, error)
	FindByID(ctx context.Context, id int64) (Video, error)
	UpdateMeta(ctx context.Context, id int64, title, description, thumbnailURL, thumbnailKey string) (Video, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store        Store
	storage      mediasvc.RemoteStorage
	orchestrator *mediasvc.Orchestrator
	logger       *zap.Logger
}

func NewService(store Store, storage mediasvc.RemoteStorage, orchestrator *mediasvc.Orchestrator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		storage:      storage,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

type PublishInput struct {
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

// Publish uploads the video file then the thumbnail and creates the record
// in one orchestrated run. Duration comes from the remote store's report for
// the video put and defaults to 0 when it has none.
func (s *Service) Publish(ctx context.Context, ownerID int64, input PublishInput) (Video, error) {
	if s.store == nil || s.orchestrator == nil {
		return Video{}, fmt.Errorf("videos dependencies are not configured")
	}

	assets := []mediasvc.Asset{
		{Role: roleVideo, LocalPath: input.VideoPath, Kind: mediasvc.KindVideo},
		{Role: roleThumbnail, LocalPath: input.ThumbnailPath, Kind: mediasvc.KindImage},
	}

	if ownerID <= 0 || !validate.Required(input.Title, input.Description) {
		s.orchestrator.CleanupStaged(assets)
		return Video{}, ErrValidation
	}
	if input.VideoPath == "" || input.ThumbnailPath == "" {
		s.orchestrator.CleanupStaged(assets)
		return Video{}, fmt.Errorf("video and thumbnail files are required: %w", ErrValidation)
	}

	var created Video
	err := s.orchestrator.Run(ctx, assets, func(ctx context.Context, uploaded []mediasvc.Uploaded) error {
		var videoObj, thumbObj mediasvc.RemoteObject
		for _, u := range uploaded {
			switch u.Asset.Role {
			case roleVideo:
				videoObj = u.Remote
			case roleThumbnail:
				thumbObj = u.Remote
			}
		}

		video, createErr := s.store.Create(ctx, NewVideo{
			OwnerID:      ownerID,
			Title:        input.Title,
			Description:  input.Description,
			VideoURL:     videoObj.URL,
			VideoKey:     videoObj.Key,
			ThumbnailURL: thumbObj.URL,
			ThumbnailKey: thumbObj.Key,
			Duration:     videoObj.Duration,
			Views:        0,
			IsPublished:  true,
		})
		if createErr != nil {
			return createErr
		}
		created = video
		return nil
	})
	if err != nil {
		return Video{}, err
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Video, error) {
	if id <= 0 {
		return Video{}, ErrValidation
	}
	return s.store.FindByID(ctx, id)
}

type UpdateInput struct {
	Title         string
	Description   string
	ThumbnailPath string
}

// Update rewrites title/description and optionally swaps the thumbnail. The
// old remote thumbnail is deleted before the new one is put; the stored
// reference is only overwritten once the new upload and the record write
// both succeeded.
func (s *Service) Update(ctx context.Context, actingUserID, videoID int64, input UpdateInput) (Video, error) {
	cleanup := []mediasvc.Asset{{Role: roleThumbnail, LocalPath: input.ThumbnailPath, Optional: true}}

	if actingUserID <= 0 || videoID <= 0 || !validate.Required(input.Title, input.Description) {
		s.orchestrator.CleanupStaged(cleanup)
		return Video{}, ErrValidation
	}

	video, err := s.store.FindByID(ctx, videoID)
	if err != nil {
		s.orchestrator.CleanupStaged(cleanup)
		return Video{}, err
	}
	if !rules.OwnedBy(video.OwnerID, actingUserID) {
		s.orchestrator.CleanupStaged(cleanup)
		return Video{}, ErrForbidden
	}

	if input.ThumbnailPath == "" {
		return s.store.UpdateMeta(ctx, videoID, input.Title, input.Description, video.ThumbnailURL, video.ThumbnailKey)
	}

	if err := s.storage.Delete(ctx, video.ThumbnailKey); err != nil {
		s.orchestrator.CleanupStaged(cleanup)
		return Video{}, fmt.Errorf("delete old thumbnail: %w", err)
	}

	var updated Video
	err = s.orchestrator.Run(ctx, []mediasvc.Asset{
		{Role: roleThumbnail, LocalPath: input.ThumbnailPath, Kind: mediasvc.KindImage},
	}, func(ctx context.Context, uploaded []mediasvc.Uploaded) error {
		remote := uploaded[0].Remote
		v, updateErr := s.store.UpdateMeta(ctx, videoID, input.Title, input.Description, remote.URL, remote.Key)
		if updateErr != nil {
			return updateErr
		}
		updated = v
		return nil
	})
	if err != nil {
		return Video{}, err
	}

	return updated, nil
}

// Delete removes the remote video file, then the remote thumbnail, then the
// record. A failed step aborts the remainder without retry and without
// reversing earlier deletes: a record pointing at missing assets is reported
// as an error, never silently papered over.
func (s *Service) Delete(ctx context.Context, actingUserID, videoID int64) error {
	if actingUserID <= 0 || videoID <= 0 {
		return ErrValidation
	}

	video, err := s.store.FindByID(ctx, videoID)
	if err != nil {
		return err
	}
	if !rules.OwnedBy(video.OwnerID, actingUserID) {
		return ErrForbidden
	}

	if err := s.storage.Delete(ctx, video.VideoKey); err != nil {
		return fmt.Errorf("delete video asset: %w", err)
	}
	if err := s.storage.Delete(ctx, video.ThumbnailKey); err != nil {
		return fmt.Errorf("delete thumbnail asset: %w", err)
	}
	if err := s.store.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete video record: %w", err)
	}

	s.logger.Info("video deleted",
		zap.Int64("video_id", videoID),
		zap.Int64("owner_id", video.OwnerID),
	)

	return nil
}
