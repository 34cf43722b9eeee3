package results

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
)

// Record is the persisted summary of one finished test.
type Record struct {
	SessionID       string    `json:"session_id"`
	StudentID       string    `json:"student_id"`
	TakenAt         time.Time `json:"taken_at"`
	Score           int       `json:"score"`
	CorrectCount    int       `json:"correct_count"`
	TotalQuestions  int       `json:"total_questions"`
	Subjects        []string  `json:"subjects"`
	Chapters        []string  `json:"chapters"`
	Difficulties    []string  `json:"difficulties"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Summary aggregates a student's history.
type Summary struct {
	TotalTests      int     `json:"total_tests"`
	AverageScore    float64 `json:"average_score"`
	HighestScore    int     `json:"highest_score"`
	AverageAccuracy float64 `json:"average_accuracy"`
}

type resultRepository interface {
	Insert(ctx context.Context, params queries.InsertTestResultParams) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]queries.TestResult, error)
}

// Service records test results and reads performance history.
type Service struct {
	repo   resultRepository
	logger zerolog.Logger
}

func NewService(repo resultRepository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "results").Logger()}
}

// Record appends rec to the student's history. Recording the same session
// twice keeps the first row.
func (s *Service) Record(ctx context.Context, rec Record) error {
	subjects, err := encodeSet(rec.Subjects)
	if err != nil {
		return err
	}
	chapters, err := encodeSet(rec.Chapters)
	if err != nil {
		return err
	}
	difficulties, err := encodeSet(rec.Difficulties)
	if err != nil {
		return err
	}

	inserted, err := s.repo.Insert(ctx, queries.InsertTestResultParams{
		ID:               uuid.NewString(),
		SessionID:        rec.SessionID,
		StudentID:        rec.StudentID,
		TakenAt:          rec.TakenAt.UnixMilli(),
		Score:            rec.Score,
		CorrectCount:     rec.CorrectCount,
		TotalQuestions:   rec.TotalQuestions,
		Subjects:         subjects,
		Chapters:         chapters,
		DifficultyLevels: difficulties,
		DurationMinutes:  rec.DurationMinutes,
	})
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if !inserted {
		s.logger.Debug().Str("session_id", rec.SessionID).Msg("result already recorded")
	}
	return nil
}

// History returns the student's records, most recent first.
func (s *Service) History(ctx context.Context, studentID string) ([]Record, error) {
	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			SessionID:       row.SessionID,
			StudentID:       row.StudentID,
			TakenAt:         time.UnixMilli(row.TakenAt).UTC(),
			Score:           row.Score,
			CorrectCount:    row.CorrectCount,
			TotalQuestions:  row.TotalQuestions,
			DurationMinutes: row.DurationMinutes,
		}
		if err := decodeSets(row, &rec); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", row.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Summarize computes average and highest score over records.
func Summarize(records []Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	var total, answered, correct int
	highest := records[0].Score
	for _, r := range records {
		total += r.Score
		if r.Score > highest {
			highest = r.Score
		}
		answered += r.TotalQuestions
		correct += r.CorrectCount
	}
	sum := Summary{
		TotalTests:   len(records),
		AverageScore: round2(float64(total) / float64(len(records))),
		HighestScore: highest,
	}
	if answered > 0 {
		sum.AverageAccuracy = round2(float64(correct) / float64(answered))
	}
	return sum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func encodeSet(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeSets(row queries.TestResult, rec *Record) error {
	for _, pair := range []struct {
		raw string
		dst *[]string
	}{
		{row.Subjects, &rec.Subjects},
		{row.Chapters, &rec.Chapters},
		{row.DifficultyLevels, &rec.Difficulties},
	} {
		if pair.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(pair.raw), pair.dst); err != nil {
			return err
		}
	}
	return nil
}
