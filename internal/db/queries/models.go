package queries

// Question is a row of the questions table. Options holds a JSON array of
// labels; CorrectAnswer holds the sorted correct labels joined ("ACD").
type Question struct {
	ID            string
	Subject       string
	Chapter       string
	Difficulty    string
	Image         []byte
	Options       string
	CorrectAnswer string
	CreatedAt     int64
}

type InsertQuestionParams struct {
	ID            string
	Subject       string
	Chapter       string
	Difficulty    string
	Image         []byte
	Options       string
	CorrectAnswer string
	CreatedAt     int64
}

// ListQuestionsParams filters the bank. Empty slices do not restrict; Limit 0
// returns every match.
type ListQuestionsParams struct {
	Subjects     []string
	Chapters     []string
	Difficulties []string
	Limit        int
}

type CatalogRow struct {
	Subject string
	Chapter string
}

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Email        string
	CreatedAt    int64
}

type CreateUserParams struct {
	ID           string
	Username     string
	PasswordHash string
	Email        string
	CreatedAt    int64
}

// TestResult is a row of test_results. Times are unix milliseconds and the
// set columns hold JSON arrays.
type TestResult struct {
	ID               string
	SessionID        string
	StudentID        string
	TakenAt          int64
	Score            int
	CorrectCount     int
	TotalQuestions   int
	Subjects         string
	Chapters         string
	DifficultyLevels string
	DurationMinutes  int
}

type InsertTestResultParams = TestResult
