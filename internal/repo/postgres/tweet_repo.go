package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	tweetssvc "github.com/ivankudzin/vidshare/internal/services/tweets"
)

type TweetRepo struct {
	pool *pgxpool.Pool
}

func NewTweetRepo(pool *pgxpool.Pool) *TweetRepo {
	return &TweetRepo{pool: pool}
}

const tweetColumns = `id, owner_id, content, created_at, updated_at`

func (r *TweetRepo) Create(ctx context.Context, ownerID int64, content string) (tweetssvc.Tweet, error) {
	if r.pool == nil {
		return tweetssvc.Tweet{}, fmt.Errorf("postgres pool is nil")
	}

	var record tweetssvc.Tweet
	err := r.pool.QueryRow(ctx, `
INSERT INTO tweets (owner_id, content, created_at, updated_at)
VALUES ($1, $2, NOW(), NOW())
RETURNING `+tweetColumns+`
`, ownerID, content).Scan(scanTweetTargets(&record)...)
	if err != nil {
		return tweetssvc.Tweet{}, fmt.Errorf("insert tweet: %w", err)
	}

	return record, nil
}

func (r *TweetRepo) ListByOwner(ctx context.Context, ownerID int64) ([]tweetssvc.Tweet, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+tweetColumns+`
FROM tweets
WHERE owner_id = $1
ORDER BY created_at DESC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}
	defer rows.Close()

	tweets := make([]tweetssvc.Tweet, 0)
	for rows.Next() {
		var record tweetssvc.Tweet
		if err := rows.Scan(scanTweetTargets(&record)...); err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		tweets = append(tweets, record)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tweets: %w", rows.Err())
	}

	return tweets, nil
}

func (r *TweetRepo) FindByID(ctx context.Context, id int64) (tweetssvc.Tweet, error) {
	if r.pool == nil {
		return tweetssvc.Tweet{}, fmt.Errorf("postgres pool is nil")
	}

	var record tweetssvc.Tweet
	err := r.pool.QueryRow(ctx, `
SELECT `+tweetColumns+`
FROM tweets
WHERE id = $1
`, id).Scan(scanTweetTargets(&record)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tweetssvc.Tweet{}, tweetssvc.ErrNotFound
		}
		return tweetssvc.Tweet{}, fmt.Errorf("find tweet by id: %w", err)
	}

	return record, nil
}

func (r *TweetRepo) UpdateContent(ctx context.Context, id int64, content string) (tweetssvc.Tweet, error) {
	if r.pool == nil {
		return tweetssvc.Tweet{}, fmt.Errorf("postgres pool is nil")
	}

	var record tweetssvc.Tweet
	err := r.pool.QueryRow(ctx, `
UPDATE tweets
SET content = $2, updated_at = NOW()
WHERE id = $1
RETURNING `+tweetColumns+`
`, id, content).Scan(scanTweetTargets(&record)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tweetssvc.Tweet{}, tweetssvc.ErrNotFound
		}
		return tweetssvc.Tweet{}, fmt.Errorf("update tweet content: %w", err)
	}

	return record, nil
}

func (r *TweetRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tweetssvc.ErrNotFound
	}

	return nil
}

func scanTweetTargets(record *tweetssvc.Tweet) []any {
	return []any{
		&record.ID,
		&record.OwnerID,
		&record.Content,
		&record.CreatedAt,
		&record.UpdatedAt,
	}
}
