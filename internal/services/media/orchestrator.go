package media

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Orchestrator runs the put-all-then-persist sequence for one logical
// operation. Remote puts are strictly sequential; when any step fails, every
// put that already succeeded is deleted again in reverse order before the
// failure is reported. Staged local files are removed at the end of a run no
// matter how it ended, so a request never leaves temp files behind.
type Orchestrator struct {
	storage    RemoteStorage
	logger     *zap.Logger
	removeFile func(string) error
}

func NewOrchestrator(storage RemoteStorage, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		storage:    storage,
		logger:     logger,
		removeFile: os.Remove,
	}
}

// Run uploads the declared assets in order and, once all of them are remote,
// invokes persist with the resulting references. persist is expected to do
// the single database write of the operation; its failure triggers
// compensation of every upload. Compensation and local cleanup failures are
// logged, never escalated — the caller always sees the original cause.
func (o *Orchestrator) Run(ctx context.Context, assets []Asset, persist func(context.Context, []Uploaded) error) error {
	if o.storage == nil || persist == nil {
		return fmt.Errorf("orchestrator dependencies are not configured")
	}

	defer o.CleanupStaged(assets)

	uploaded := make([]Uploaded, 0, len(assets))
	for _, asset := range assets {
		if asset.LocalPath == "" {
			if asset.Optional {
				continue
			}
			o.compensate(ctx, uploaded)
			return fmt.Errorf("missing staged file for %s: %w", asset.Role, ErrValidation)
		}

		remote, err := o.storage.Upload(ctx, asset.LocalPath, asset.Kind)
		if err != nil {
			o.logger.Error("remote upload failed",
				zap.String("role", asset.Role),
				zap.Error(err),
			)
			o.compensate(ctx, uploaded)
			return fmt.Errorf("upload %s: %w", asset.Role, ErrUploadFailed)
		}
		uploaded = append(uploaded, Uploaded{Asset: asset, Remote: remote})
	}

	if err := persist(ctx, uploaded); err != nil {
		o.logger.Error("persist after upload failed", zap.Error(err))
		o.compensate(ctx, uploaded)
		return fmt.Errorf("persist uploaded assets: %w", ErrPersistenceFailed)
	}

	return nil
}

// CleanupStaged removes the staged local files of the given assets. Used by
// Run and by callers that abort before any upload starts, e.g. the duplicate
// identity pre-check during registration. Absent files are fine: an optional
// asset may never have been staged.
func (o *Orchestrator) CleanupStaged(assets []Asset) {
	for _, asset := range assets {
		if asset.LocalPath == "" {
			continue
		}
		if err := o.removeFile(asset.LocalPath); err != nil && !os.IsNotExist(err) {
			o.logger.Warn("remove staged file failed",
				zap.String("role", asset.Role),
				zap.String("path", asset.LocalPath),
				zap.Error(err),
			)
		}
	}
}

func (o *Orchestrator) compensate(ctx context.Context, uploaded []Uploaded) {
	for i := len(uploaded) - 1; i >= 0; i-- {
		u := uploaded[i]
		if err := o.storage.Delete(ctx, u.Remote.Key); err != nil {
			o.logger.Warn("compensating remote delete failed",
				zap.String("role", u.Asset.Role),
				zap.String("key", u.Remote.Key),
				zap.Error(err),
			)
		}
	}
}
