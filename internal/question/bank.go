package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
	"github.com/gokatarajesh/mentors-mantra/internal/db/repository"
)

// SQLBank adapts the question repository to the Bank interface.
type SQLBank struct {
	repo *repository.QuestionRepository
}

var _ Bank = (*SQLBank)(nil)

func NewSQLBank(repo *repository.QuestionRepository) *SQLBank {
	return &SQLBank{repo: repo}
}

func (b *SQLBank) Match(ctx context.Context, f Filter) ([]Question, error) {
	rows, err := b.repo.Match(ctx, f.Subjects, f.Chapters, f.Difficulties)
	if err != nil {
		return nil, fmt.Errorf("match questions: %w", err)
	}
	out := make([]Question, 0, len(rows))
	for _, row := range rows {
		q, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (b *SQLBank) Image(ctx context.Context, id string) ([]byte, error) {
	row, err := b.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuestionMissing
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	if len(row.Image) == 0 {
		return nil, ErrNoImage
	}
	return row.Image, nil
}

func (b *SQLBank) Catalog(ctx context.Context) (map[string][]string, error) {
	rows, err := b.repo.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	catalog := make(map[string][]string)
	for _, r := range rows {
		catalog[r.Subject] = append(catalog[r.Subject], r.Chapter)
	}
	return catalog, nil
}

// Import validates q and inserts it with its image.
func (b *SQLBank) Import(ctx context.Context, q Question, image []byte, createdAt int64) error {
	if q.ID == "" || q.Subject == "" || q.Chapter == "" {
		return fmt.Errorf("question %q: id, subject and chapter are required", q.ID)
	}
	q.Difficulty = CanonicalDifficulty(q.Difficulty)
	if err := (Filter{Difficulties: []string{q.Difficulty}, Count: 1}).Validate(); err != nil {
		return fmt.Errorf("question %q: unknown difficulty %q", q.ID, q.Difficulty)
	}
	if len(q.Options) == 0 {
		q.Options = append([]string(nil), DefaultOptions...)
	}
	answer := JoinLabels(q.CorrectAnswer)
	if answer == "" {
		return fmt.Errorf("question %q: correct answer is required", q.ID)
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	return b.repo.Insert(ctx, queries.InsertQuestionParams{
		ID:            q.ID,
		Subject:       q.Subject,
		Chapter:       q.Chapter,
		Difficulty:    q.Difficulty,
		Image:         image,
		Options:       string(options),
		CorrectAnswer: answer,
		CreatedAt:     createdAt,
	})
}

func fromRow(row queries.Question) (Question, error) {
	var options []string
	if row.Options != "" {
		if err := json.Unmarshal([]byte(row.Options), &options); err != nil {
			return Question{}, fmt.Errorf("decode options for %s: %w", row.ID, err)
		}
	}
	if len(options) == 0 {
		options = append([]string(nil), DefaultOptions...)
	}
	return Question{
		ID:            row.ID,
		Subject:       row.Subject,
		Chapter:       row.Chapter,
		Difficulty:    row.Difficulty,
		Options:       options,
		CorrectAnswer: SplitLabels(row.CorrectAnswer),
		HasImage:      len(row.Image) > 0,
	}, nil
}
