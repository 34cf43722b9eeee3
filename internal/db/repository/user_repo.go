package repository

import (
	"context"

	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
)

type userStore interface {
	CreateUser(ctx context.Context, arg queries.CreateUserParams) (queries.User, error)
	GetUserByUsername(ctx context.Context, username string) (queries.User, error)
	GetUserByID(ctx context.Context, id string) (queries.User, error)
}

// UserRepository exposes typed DB operations required by auth flows.
type UserRepository struct {
	store userStore
}

// NewUserRepository wraps the user queries.
func NewUserRepository(store userStore) *UserRepository {
	return &UserRepository{store: store}
}

// Create inserts a student account. A taken username returns ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, params queries.CreateUserParams) (queries.User, error) {
	u, err := r.store.CreateUser(ctx, params)
	return u, translate(err)
}

// GetByUsername fetches a user or returns ErrNotFound.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (queries.User, error) {
	u, err := r.store.GetUserByUsername(ctx, username)
	return u, translate(err)
}

// GetByID fetches a user or returns ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (queries.User, error) {
	u, err := r.store.GetUserByID(ctx, id)
	return u, translate(err)
}
