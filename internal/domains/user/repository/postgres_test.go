package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcharge-backend/internal/domains/user"
	cacheinfra "evcharge-backend/internal/infrastructure/cache"
)

var userColumns = []string{"id", "email", "password_hash", "full_name", "role", "created_at", "updated_at"}

func newRepo(t *testing.T) (user.Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	mr := miniredis.RunT(t)
	rc := cacheinfra.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rc.Close() })

	return NewPostgresRepository(mock, rc), mock
}

func TestCreate(t *testing.T) {
	now := time.Now()
	u := &user.User{Email: "driver@ev.vn", PasswordHash: "hash", FullName: "A", Role: user.RoleCustomer, CreatedAt: now, UpdatedAt: now}

	t.Run("inserted", func(t *testing.T) {
		repo, mock := newRepo(t)
		id := uuid.New()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(u.Email, u.PasswordHash, u.FullName, u.Role, u.CreatedAt, u.UpdatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

		got, err := repo.Create(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(u.Email, u.PasswordHash, u.FullName, u.Role, u.CreatedAt, u.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := repo.Create(context.Background(), u)
		assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)
	})

	t.Run("invalid role never reaches db", func(t *testing.T) {
		repo, mock := newRepo(t)
		bad := *u
		bad.Role = user.Role("superuser")

		_, err := repo.Create(context.Background(), &bad)
		assert.ErrorIs(t, err, user.ErrInvalidRole)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFindByID_CachesProfile(t *testing.T) {
	repo, mock := newRepo(t)
	id := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	// chỉ một query: lần gọi thứ hai đọc từ Redis
	mock.ExpectQuery("SELECT id, email, password_hash, full_name, role, created_at, updated_at FROM users WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(id, "driver@ev.vn", "hash", "A", user.RoleCustomer, now, now))

	first, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	second, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, first.Email, second.Email)
	assert.Empty(t, second.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("FROM users WHERE email = \\$1").
		WithArgs("ghost@ev.vn").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@ev.vn")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestExistsByEmail(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("driver@ev.vn").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "driver@ev.vn")
	require.NoError(t, err)
	assert.True(t, exists)
}
