package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	userssvc "github.com/ivankudzin/vidshare/internal/services/users"
)

const uniqueViolationCode = "23505"

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, username, email, fullname, password_hash, avatar_url, avatar_key, cover_url, cover_key, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, user userssvc.NewUser) (userssvc.User, error) {
	if r.pool == nil {
		return userssvc.User{}, fmt.Errorf("postgres pool is nil")
	}

	var record userssvc.User
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (username, email, fullname, password_hash, avatar_url, avatar_key, cover_url, cover_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
RETURNING `+userColumns+`
`, user.Username, user.Email, user.Fullname, user.PasswordHash,
		user.AvatarURL, user.AvatarKey, user.CoverURL, user.CoverKey,
	).Scan(scanUserTargets(&record)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return userssvc.User{}, userssvc.ErrConflict
		}
		return userssvc.User{}, fmt.Errorf("insert user: %w", err)
	}

	return record, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id int64) (userssvc.User, error) {
	if r.pool == nil {
		return userssvc.User{}, fmt.Errorf("postgres pool is nil")
	}

	var record userssvc.User
	err := r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
`, id).Scan(scanUserTargets(&record)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userssvc.User{}, userssvc.ErrNotFound
		}
		return userssvc.User{}, fmt.Errorf("find user by id: %w", err)
	}

	return record, nil
}

func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (userssvc.User, error) {
	if r.pool == nil {
		return userssvc.User{}, fmt.Errorf("postgres pool is nil")
	}

	var record userssvc.User
	err := r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE username = $1 OR email = $2
LIMIT 1
`, username, email).Scan(scanUserTargets(&record)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userssvc.User{}, userssvc.ErrNotFound
		}
		return userssvc.User{}, fmt.Errorf("find user by username or email: %w", err)
	}

	return record, nil
}

func (r *UserRepo) UpdateDetails(ctx context.Context, id int64, fullname, email string) (userssvc.User, error) {
	return r.updateReturning(ctx, `
UPDATE users
SET fullname = $2, email = $3, updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns+`
`, id, fullname, email)
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, id int64, url, key string) (userssvc.User, error) {
	return r.updateReturning(ctx, `
UPDATE users
SET avatar_url = $2, avatar_key = $3, updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns+`
`, id, url, key)
}

func (r *UserRepo) UpdateCover(ctx context.Context, id int64, url, key string) (userssvc.User, error) {
	return r.updateReturning(ctx, `
UPDATE users
SET cover_url = $2, cover_key = $3, updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns+`
`, id, url, key)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET password_hash = $2, updated_at = NOW()
WHERE id = $1
`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return userssvc.ErrNotFound
	}

	return nil
}

func (r *UserRepo) updateReturning(ctx context.Context, query string, args ...any) (userssvc.User, error) {
	if r.pool == nil {
		return userssvc.User{}, fmt.Errorf("postgres pool is nil")
	}

	var record userssvc.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(scanUserTargets(&record)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userssvc.User{}, userssvc.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return userssvc.User{}, userssvc.ErrConflict
		}
		return userssvc.User{}, fmt.Errorf("update user: %w", err)
	}

	return record, nil
}

func scanUserTargets(record *userssvc.User) []any {
	return []any{
		&record.ID,
		&record.Username,
		&record.Email,
		&record.Fullname,
		&record.PasswordHash,
		&record.AvatarURL,
		&record.AvatarKey,
		&record.CoverURL,
		&record.CoverKey,
		&record.CreatedAt,
		&record.UpdatedAt,
	}
}
