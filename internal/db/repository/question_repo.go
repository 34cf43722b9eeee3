package repository

import (
	"context"

	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
)

type questionStore interface {
	ListQuestions(ctx context.Context, arg queries.ListQuestionsParams) ([]queries.Question, error)
	GetQuestion(ctx context.Context, id string) (queries.Question, error)
	InsertQuestion(ctx context.Context, arg queries.InsertQuestionParams) error
	ListCatalog(ctx context.Context) ([]queries.CatalogRow, error)
}

// QuestionRepository wraps the question bank queries.
type QuestionRepository struct {
	store questionStore
}

func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// Match returns every question whose subject, chapter and difficulty fall in
// the given sets. An empty set does not restrict that attribute.
func (r *QuestionRepository) Match(ctx context.Context, subjects, chapters, difficulties []string) ([]queries.Question, error) {
	return r.store.ListQuestions(ctx, queries.ListQuestionsParams{
		Subjects:     subjects,
		Chapters:     chapters,
		Difficulties: difficulties,
	})
}

func (r *QuestionRepository) Get(ctx context.Context, id string) (queries.Question, error) {
	q, err := r.store.GetQuestion(ctx, id)
	return q, translate(err)
}

// Insert adds a question to the bank.
func (r *QuestionRepository) Insert(ctx context.Context, params queries.InsertQuestionParams) error {
	return r.store.InsertQuestion(ctx, params)
}

// Catalog returns the distinct subject/chapter pairs present in the bank.
func (r *QuestionRepository) Catalog(ctx context.Context) ([]queries.CatalogRow, error) {
	return r.store.ListCatalog(ctx)
}
