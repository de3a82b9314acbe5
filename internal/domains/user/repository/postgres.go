package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"evcharge-backend/internal/domains/user"
	"evcharge-backend/pkg/cache"
	"evcharge-backend/pkg/database"
)

const profileCacheTTL = 15 * time.Minute

// postgresRepository implement user.Repository interface
type postgresRepository struct {
	db    database.DBTX
	cache cache.Cache
}

// NewPostgresRepository nhận pool (hoặc pgxmock) và cache layer
func NewPostgresRepository(db database.DBTX, cache cache.Cache) user.Repository {
	return &postgresRepository{
		db:    db,
		cache: cache,
	}
}

func profileCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// ========================================
// BASIC CRUD OPERATIONS
// ========================================

func (r *postgresRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	if !u.Role.IsValid() {
		return uuid.Nil, user.ErrInvalidRole
	}

	query := `
		INSERT INTO users (email, password_hash, full_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var userID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		u.Email,
		u.PasswordHash,
		u.FullName,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&userID)
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return uuid.Nil, user.ErrEmailAlreadyExists
		}
		return uuid.Nil, fmt.Errorf("create user: %w", err)
	}

	return userID, nil
}

// FindByID tìm user theo UUID với Redis caching (cache-aside)
func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	cacheKey := profileCacheKey(id)

	var u user.User
	found, err := r.cache.Get(ctx, cacheKey, &u)
	if err == nil && found {
		return &u, nil
	}

	query := `
		SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	if err := scanUser(r.db.QueryRow(ctx, query, id), &u); err != nil {
		return nil, err
	}

	// Cache unavailable thì vẫn trả kết quả từ DB
	_ = r.cache.Set(ctx, cacheKey, &u, profileCacheTTL)

	return &u, nil
}

// FindByEmail dùng cho login, không cache vì cần password hash
func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var u user.User
	if err := scanUser(r.db.QueryRow(ctx, query, email), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func scanUser(row pgx.Row, u *user.User) error {
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	return nil
}
