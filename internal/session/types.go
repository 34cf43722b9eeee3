package session

import (
	"errors"
	"time"

	"github.com/gokatarajesh/mentors-mantra/internal/question"
)

// State of a test session. Completed is terminal.
type State string

const (
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// Trigger records why a session was finalized.
type Trigger string

const (
	TriggerSubmit   Trigger = "submit"
	TriggerDeadline Trigger = "deadline"
)

var (
	ErrNoQuestionsAvailable = errors.New("no questions available for the selected filters")
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidDuration      = errors.New("test duration must be positive")
	ErrLockTimeout          = errors.New("session is busy")
)

// TestSession is one timed attempt by one student. Answers maps question
// index to the normalized label set; absent keys are unanswered.
type TestSession struct {
	ID              string              `json:"id"`
	StudentID       string              `json:"student_id"`
	Filter          question.Filter     `json:"filter"`
	Questions       []question.Question `json:"questions"`
	Answers         map[int][]string    `json:"answers"`
	StartedAt       time.Time           `json:"started_at"`
	DurationSeconds int                 `json:"duration_seconds"`
	State           State               `json:"state"`
	Finalized       bool                `json:"finalized"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	Result          *ScoreResult        `json:"result,omitempty"`
}

// Deadline is StartedAt plus the configured duration.
func (s *TestSession) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.DurationSeconds) * time.Second)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *TestSession) Clone() *TestSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = append([]question.Question(nil), s.Questions...)
	out.Answers = make(map[int][]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = append([]string(nil), v...)
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		out.CompletedAt = &at
	}
	if s.Result != nil {
		r := s.Result.clone()
		out.Result = &r
	}
	return &out
}

// QuestionResult is the per-question line of a scorecard.
type QuestionResult struct {
	Index      int      `json:"index"`
	QuestionID string   `json:"question_id"`
	Subject    string   `json:"subject"`
	Chapter    string   `json:"chapter"`
	Chosen     []string `json:"chosen"`
	Correct    []string `json:"correct"`
	Answered   bool     `json:"answered"`
	IsCorrect  bool     `json:"is_correct"`
}

// ScoreResult is computed exactly once per session. PersistFailed and
// NotifyFailed report side effects that did not complete; the session stays
// finalized regardless.
type ScoreResult struct {
	SessionID        string           `json:"session_id"`
	StudentID        string           `json:"student_id"`
	CorrectCount     int              `json:"correct_count"`
	Points           int              `json:"points"`
	PointsPerCorrect int              `json:"points_per_correct"`
	TotalQuestions   int              `json:"total_questions"`
	MaxPoints        int              `json:"max_points"`
	Questions        []QuestionResult `json:"questions"`
	Trigger          Trigger          `json:"trigger"`
	FinalizedAt      time.Time        `json:"finalized_at"`
	DurationMinutes  int              `json:"duration_minutes"`
	PersistFailed    bool             `json:"persist_failed"`
	NotifyFailed     bool             `json:"notify_failed"`
	Warnings         []string         `json:"warnings,omitempty"`
}

func (r ScoreResult) clone() ScoreResult {
	out := r
	out.Questions = make([]QuestionResult, len(r.Questions))
	for i, q := range r.Questions {
		q.Chosen = append([]string(nil), q.Chosen...)
		q.Correct = append([]string(nil), q.Correct...)
		out.Questions[i] = q
	}
	out.Warnings = append([]string(nil), r.Warnings...)
	return out
}
