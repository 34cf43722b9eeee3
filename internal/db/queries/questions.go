package queries

import (
	"context"
	"strings"
)

const questionColumns = `id, subject, chapter, difficulty, image, options, correct_answer, created_at`

const insertQuestion = `INSERT INTO questions (` + questionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertQuestion(ctx context.Context, arg InsertQuestionParams) error {
	_, err := q.db.ExecContext(ctx, q.rebind(insertQuestion),
		arg.ID, arg.Subject, arg.Chapter, arg.Difficulty, arg.Image, arg.Options, arg.CorrectAnswer, arg.CreatedAt)
	return err
}

const getQuestion = `SELECT ` + questionColumns + ` FROM questions WHERE id = ?`

func (q *Queries) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getQuestion), id)
	var i Question
	err := row.Scan(&i.ID, &i.Subject, &i.Chapter, &i.Difficulty, &i.Image, &i.Options, &i.CorrectAnswer, &i.CreatedAt)
	return i, err
}

// ListQuestions returns every question matching all non-empty filter sets,
// ordered by id so callers control sampling.
func (q *Queries) ListQuestions(ctx context.Context, arg ListQuestionsParams) ([]Question, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + questionColumns + ` FROM questions WHERE 1=1`)
	args := make([]any, 0, len(arg.Subjects)+len(arg.Chapters)+len(arg.Difficulties)+1)
	args = inClause(&sb, args, "subject", arg.Subjects)
	args = inClause(&sb, args, "chapter", arg.Chapters)
	args = inClause(&sb, args, "difficulty", arg.Difficulties)
	sb.WriteString(" ORDER BY id")
	if arg.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, arg.Limit)
	}

	rows, err := q.db.QueryContext(ctx, q.rebind(sb.String()), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Question
	for rows.Next() {
		var i Question
		if err := rows.Scan(&i.ID, &i.Subject, &i.Chapter, &i.Difficulty, &i.Image, &i.Options, &i.CorrectAnswer, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listCatalog = `SELECT DISTINCT subject, chapter FROM questions ORDER BY subject, chapter`

func (q *Queries) ListCatalog(ctx context.Context) ([]CatalogRow, error) {
	rows, err := q.db.QueryContext(ctx, listCatalog)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CatalogRow
	for rows.Next() {
		var i CatalogRow
		if err := rows.Scan(&i.Subject, &i.Chapter); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
