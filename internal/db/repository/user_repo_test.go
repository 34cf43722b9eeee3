package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mentors-mantra/internal/db"
	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) CreateUser(ctx context.Context, arg queries.CreateUserParams) (queries.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *mockUserStore) GetUserByUsername(ctx context.Context, username string) (queries.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (queries.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.User), args.Error(1)
}

func TestUserRepository_Create(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	params := queries.CreateUserParams{
		ID:           "u1",
		Username:     "asha",
		PasswordHash: "hashed",
		Email:        "asha@example.com",
	}
	expect := queries.User(params)

	store.On("CreateUser", mock.Anything, params).Return(expect, nil)

	got, err := repo.Create(context.Background(), params)

	assert.NoError(t, err)
	assert.Equal(t, expect, got)
	store.AssertExpectations(t)
}

func TestUserRepository_GetByUsername(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	expect := queries.User{ID: "u1", Username: "asha"}
	store.On("GetUserByUsername", mock.Anything, "asha").Return(expect, nil)
	store.On("GetUserByUsername", mock.Anything, "ghost").Return(queries.User{}, sql.ErrNoRows)

	got, err := repo.GetByUsername(context.Background(), "asha")
	assert.NoError(t, err)
	assert.Equal(t, expect, got)

	_, err = repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	store.AssertExpectations(t)
}

func TestUserRepository_GetByID(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	store.On("GetUserByID", mock.Anything, "missing").Return(queries.User{}, sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	store.AssertExpectations(t)
}

func TestUserRepository_CreateDuplicateSQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, db.DriverSQLite))
	repo := NewUserRepository(queries.New(conn, db.DriverSQLite))

	_, err = repo.Create(ctx, queries.CreateUserParams{ID: "u1", Username: "asha", PasswordHash: "h", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, queries.CreateUserParams{ID: "u2", Username: "asha", PasswordHash: "h", Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestTranslate_PostgresUniqueViolation(t *testing.T) {
	err := translate(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = translate(&pgconn.PgError{Code: "23502"})
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.Nil(t, translate(nil))
}
