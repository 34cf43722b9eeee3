package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mentors-mantra/internal/db"
)

func newTestQueries(t *testing.T) *Queries {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, db.DriverSQLite))
	return New(conn, db.DriverSQLite)
}

func seedQuestion(t *testing.T, q *Queries, id, subject, chapter, difficulty string) {
	t.Helper()
	err := q.InsertQuestion(context.Background(), InsertQuestionParams{
		ID:            id,
		Subject:       subject,
		Chapter:       chapter,
		Difficulty:    difficulty,
		Image:         []byte{0x89, 0x50},
		Options:       `["A","B","C","D"]`,
		CorrectAnswer: "AC",
		CreatedAt:     1,
	})
	require.NoError(t, err)
}

func TestRebind(t *testing.T) {
	pg := New(nil, db.DriverPostgres)
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", pg.rebind("a = ? AND b IN (?, ?)"))

	lite := New(nil, db.DriverSQLite)
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestListQuestions_Filters(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()
	seedQuestion(t, q, "q1", "Physics", "Optics", "Easy")
	seedQuestion(t, q, "q2", "Physics", "Optics", "Hard")
	seedQuestion(t, q, "q3", "Physics", "Mechanics", "Easy")
	seedQuestion(t, q, "q4", "Math", "Algebra", "Medium")

	tests := []struct {
		name string
		arg  ListQuestionsParams
		want []string
	}{
		{"no restriction", ListQuestionsParams{}, []string{"q1", "q2", "q3", "q4"}},
		{"subject", ListQuestionsParams{Subjects: []string{"Physics"}}, []string{"q1", "q2", "q3"}},
		{"subject and chapter", ListQuestionsParams{Subjects: []string{"Physics"}, Chapters: []string{"Optics"}}, []string{"q1", "q2"}},
		{"all three", ListQuestionsParams{Subjects: []string{"Physics"}, Chapters: []string{"Optics"}, Difficulties: []string{"Easy"}}, []string{"q1"}},
		{"multi difficulty", ListQuestionsParams{Difficulties: []string{"Easy", "Medium"}}, []string{"q1", "q3", "q4"}},
		{"no match", ListQuestionsParams{Subjects: []string{"Chemistry"}}, nil},
		{"limit", ListQuestionsParams{Limit: 2}, []string{"q1", "q2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := q.ListQuestions(ctx, tt.arg)
			require.NoError(t, err)
			var ids []string
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGetQuestionAndCatalog(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()
	seedQuestion(t, q, "q1", "Physics", "Optics", "Easy")
	seedQuestion(t, q, "q2", "Physics", "Optics", "Hard")
	seedQuestion(t, q, "q3", "Math", "Algebra", "Easy")

	got, err := q.GetQuestion(ctx, "q2")
	require.NoError(t, err)
	assert.Equal(t, "Hard", got.Difficulty)
	assert.Equal(t, "AC", got.CorrectAnswer)
	assert.Equal(t, []byte{0x89, 0x50}, got.Image)

	_, err = q.GetQuestion(ctx, "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	catalog, err := q.ListCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CatalogRow{{"Math", "Algebra"}, {"Physics", "Optics"}}, catalog)
}

func TestUsers(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	created, err := q.CreateUser(ctx, CreateUserParams{ID: "u1", Username: "asha", PasswordHash: "h", Email: "asha@example.com", CreatedAt: 5})
	require.NoError(t, err)
	assert.Equal(t, "asha", created.Username)

	_, err = q.CreateUser(ctx, CreateUserParams{ID: "u2", Username: "asha", PasswordHash: "h", CreatedAt: 6})
	assert.Error(t, err)

	got, err := q.GetUserByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = q.GetUserByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestTestResults(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		inserted, err := q.InsertTestResult(ctx, InsertTestResultParams{
			ID:               fmt.Sprintf("r%d", i),
			SessionID:        fmt.Sprintf("s%d", i),
			StudentID:        "asha",
			TakenAt:          int64(i * 1000),
			Score:            i * 4,
			CorrectCount:     i,
			TotalQuestions:   5,
			Subjects:         `["Physics"]`,
			Chapters:         `["Optics"]`,
			DifficultyLevels: `["Easy"]`,
			DurationMinutes:  10,
		})
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	inserted, err := q.InsertTestResult(ctx, InsertTestResultParams{
		ID: "dup", SessionID: "s1", StudentID: "asha", Subjects: "[]", Chapters: "[]", DifficultyLevels: "[]",
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	rows, err := q.ListTestResultsByStudent(ctx, "asha")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "r3", rows[0].ID)
	assert.Equal(t, "r1", rows[2].ID)
	assert.Equal(t, 12, rows[0].Score)

	rows, err = q.ListTestResultsByStudent(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
