package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	videossvc "github.com/ivankudzin/vidshare/internal/services/videos"
)

type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key, duration, views, is_published, created_at, updated_at`

func (r *VideoRepo) Create(ctx context.Context, video videossvc.NewVideo) (videossvc.Video, error) {
	if r.pool == nil {
		return videossvc.Video{}, fmt.Errorf("postgres pool is nil")
	}

	var record videossvc.Video
	err := r.pool.QueryRow(ctx, `
INSERT INTO videos (owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key, duration, views, is_published, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
RETURNING `+videoColumns+`
`, video.OwnerID, video.Title, video.Description,
		video.VideoURL, video.VideoKey, video.ThumbnailURL, video.ThumbnailKey,
		video.Duration, video.Views, video.IsPublished,
	).Scan(scanVideoTargets(&record)...)
	if err != nil {
		return videossvc.Video{}, fmt.Errorf("insert video: %w", err)
	}

	return record, nil
}

func (r *VideoRepo) FindByID(ctx context.Context, id int64) (videossvc.Video, error) {
	if r.pool == nil {
		return videossvc.Video{}, fmt.Errorf("postgres pool is nil")
	}

	var record videossvc.Video
	err := r.pool.QueryRow(ctx, `
SELECT `+videoColumns+`
FROM videos
WHERE id = $1
`, id).Scan(scanVideoTargets(&record)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return videossvc.Video{}, videossvc.ErrNotFound
		}
		return videossvc.Video{}, fmt.Errorf("find video by id: %w", err)
	}

	return record, nil
}

func (r *VideoRepo) UpdateMeta(ctx context.Context, id int64, title, description, thumbnailURL, thumbnailKey string) (videossvc.Video, error) {
	if r.pool == nil {
		return videossvc.Video{}, fmt.Errorf("postgres pool is nil")
	}

	var record videossvc.Video
	err := r.pool.QueryRow(ctx, `
UPDATE videos
SET title = $2, description = $3, thumbnail_url = $4, thumbnail_key = $5, updated_at = NOW()
WHERE id = $1
RETURNING `+videoColumns+`
`, id, title, description, thumbnailURL, thumbnailKey).Scan(scanVideoTargets(&record)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return videossvc.Video{}, videossvc.ErrNotFound
		}
		return videossvc.Video{}, fmt.Errorf("update video meta: %w", err)
	}

	return record, nil
}

func (r *VideoRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return videossvc.ErrNotFound
	}

	return nil
}

func scanVideoTargets(record *videossvc.Video) []any {
	return []any{
		&record.ID,
		&record.OwnerID,
		&record.Title,
		&record.Description,
		&record.VideoURL,
		&record.VideoKey,
		&record.ThumbnailURL,
		&record.ThumbnailKey,
		&record.Duration,
		&record.Views,
		&record.IsPublished,
		&record.CreatedAt,
		&record.UpdatedAt,
	}
}
