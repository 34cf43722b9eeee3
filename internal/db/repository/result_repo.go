package repository

import (
	"context"

	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
)

type resultStore interface {
	InsertTestResult(ctx context.Context, arg queries.InsertTestResultParams) (bool, error)
	ListTestResultsByStudent(ctx context.Context, studentID string) ([]queries.TestResult, error)
}

// ResultRepository persists finished test results.
type ResultRepository struct {
	store resultStore
}

func NewResultRepository(store resultStore) *ResultRepository {
	return &ResultRepository{store: store}
}

// Insert stores a result; a second insert for the same session is ignored
// and reported as false.
func (r *ResultRepository) Insert(ctx context.Context, params queries.InsertTestResultParams) (bool, error) {
	return r.store.InsertTestResult(ctx, params)
}

// ListByStudent returns a student's results, most recent first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]queries.TestResult, error) {
	return r.store.ListTestResultsByStudent(ctx, studentID)
}
