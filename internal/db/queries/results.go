package queries

import "context"

const insertTestResult = `INSERT INTO test_results (
  id, session_id, student_id, taken_at, score, correct_count, total_questions,
  subjects, chapters, difficulty_levels, duration_minutes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id) DO NOTHING`

// InsertTestResult stores a result once per session. It reports false when a
// row for the session already exists.
func (q *Queries) InsertTestResult(ctx context.Context, arg InsertTestResultParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, q.rebind(insertTestResult),
		arg.ID, arg.SessionID, arg.StudentID, arg.TakenAt, arg.Score, arg.CorrectCount, arg.TotalQuestions,
		arg.Subjects, arg.Chapters, arg.DifficultyLevels, arg.DurationMinutes)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const listTestResultsByStudent = `SELECT id, session_id, student_id, taken_at, score, correct_count, total_questions,
  subjects, chapters, difficulty_levels, duration_minutes
FROM test_results
WHERE student_id = ?
ORDER BY taken_at DESC, id DESC`

func (q *Queries) ListTestResultsByStudent(ctx context.Context, studentID string) ([]TestResult, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listTestResultsByStudent), studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TestResult
	for rows.Next() {
		var i TestResult
		if err := rows.Scan(&i.ID, &i.SessionID, &i.StudentID, &i.TakenAt, &i.Score, &i.CorrectCount, &i.TotalQuestions,
			&i.Subjects, &i.Chapters, &i.DifficultyLevels, &i.DurationMinutes); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
