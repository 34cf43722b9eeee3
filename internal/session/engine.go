package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/gokatarajesh/mentors-mantra/internal/question"
	"github.com/gokatarajesh/mentors-mantra/internal/results"
	"github.com/gokatarajesh/mentors-mantra/internal/session/scoring"
)

// QuestionSource draws questions for a new session.
type QuestionSource interface {
	Fetch(ctx context.Context, f question.Filter) ([]question.Question, error)
}

// ResultRecorder persists a finalized session's summary.
type ResultRecorder interface {
	Record(ctx context.Context, rec results.Record) error
}

// ResultNotifier delivers a finalized session's scorecard.
type ResultNotifier interface {
	NotifyResult(ctx context.Context, s *TestSession, r ScoreResult) error
}

// EngineOptions configures the lifecycle engine.
type EngineOptions struct {
	Scoring           scoring.Config
	SideEffectTimeout time.Duration
	Now               func() time.Time
	Metrics           *Metrics
}

// Engine owns the lifecycle of a single TestSession value: start, answer,
// time keeping and finalization. Callers serialize access per session.
type Engine struct {
	questions QuestionSource
	recorder  ResultRecorder
	notifier  ResultNotifier
	scorer    *scoring.Engine
	timeout   time.Duration
	now       func() time.Time
	metrics   *Metrics
	logger    zerolog.Logger
}

func NewEngine(questions QuestionSource, recorder ResultRecorder, notifier ResultNotifier, opts EngineOptions, logger zerolog.Logger) *Engine {
	if opts.SideEffectTimeout <= 0 {
		opts.SideEffectTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		questions: questions,
		recorder:  recorder,
		notifier:  notifier,
		scorer:    scoring.NewEngine(opts.Scoring),
		timeout:   opts.SideEffectTimeout,
		now:       opts.Now,
		metrics:   opts.Metrics,
		logger:    logger.With().Str("component", "session_engine").Logger(),
	}
}

// Start draws questions for f and opens an Active session. It fails with
// ErrNoQuestionsAvailable when nothing matches.
func (e *Engine) Start(ctx context.Context, studentID string, f question.Filter, duration time.Duration) (*TestSession, error) {
	seconds := int(duration / time.Second)
	if seconds <= 0 {
		return nil, ErrInvalidDuration
	}

	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	qs, err := e.questions.Fetch(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("draw questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	s := &TestSession{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		Filter:          f,
		Questions:       qs,
		Answers:         make(map[int][]string),
		StartedAt:       e.now(),
		DurationSeconds: seconds,
		State:           StateActive,
	}
	e.metrics.sessionStarted()
	e.logger.Info().
		Str("session_id", s.ID).
		Str("student_id", studentID).
		Int("questions", len(qs)).
		Int("duration_seconds", seconds).
		Msg("session started")
	return s, nil
}

// RecordAnswer replaces the selection for question index. It reports false
// and leaves s untouched when the session is no longer accepting answers or
// the index is out of range. An empty selection clears the answer.
func (e *Engine) RecordAnswer(s *TestSession, index int, labels []string) bool {
	if s.State != StateActive || s.Finalized || e.IsExpired(s) {
		e.logger.Debug().Str("session_id", s.ID).Int("index", index).Msg("answer ignored: session closed")
		return false
	}
	if index < 0 || index >= len(s.Questions) {
		e.logger.Debug().Str("session_id", s.ID).Int("index", index).Msg("answer ignored: index out of range")
		return false
	}
	if s.Answers == nil {
		s.Answers = make(map[int][]string)
	}
	chosen := scoring.NormalizeLabels(labels)
	if len(chosen) == 0 {
		delete(s.Answers, index)
		return true
	}
	s.Answers[index] = chosen
	return true
}

// RemainingTime is max(0, deadline - now); it is zero once completed.
func (e *Engine) RemainingTime(s *TestSession) time.Duration {
	if s.State == StateCompleted {
		return 0
	}
	left := s.Deadline().Sub(e.now())
	if left < 0 {
		return 0
	}
	return left
}

// IsExpired reports whether no time remains.
func (e *Engine) IsExpired(s *TestSession) bool {
	return e.RemainingTime(s) == 0
}

// Finalize completes s, scores it and performs one persistence call and one
// notification call. Repeat calls return the stored result without side
// effects. Side-effect failures are flagged on the result and never undo
// completion.
func (e *Engine) Finalize(ctx context.Context, s *TestSession, trigger Trigger) ScoreResult {
	result, fresh := e.Complete(s, trigger)
	if !fresh {
		return result
	}
	return e.RunSideEffects(ctx, s)
}

// Complete moves s to Completed, scores it and sets the finalized guard
// without touching collaborators. fresh is false when s was already
// finalized, in which case the stored result is returned (rebuilt, without
// side effects, if it was lost).
func (e *Engine) Complete(s *TestSession, trigger Trigger) (result ScoreResult, fresh bool) {
	if s.Finalized {
		e.logger.Debug().Str("session_id", s.ID).Msg("finalize ignored: already finalized")
		if s.Result == nil {
			rebuilt := e.score(s)
			rebuilt.Trigger = trigger
			rebuilt.DurationMinutes = s.DurationSeconds / 60
			if s.CompletedAt != nil {
				rebuilt.FinalizedAt = *s.CompletedAt
			}
			s.State = StateCompleted
			s.Result = &rebuilt
		}
		return s.Result.clone(), false
	}

	now := e.now()
	s.State = StateCompleted
	s.CompletedAt = &now

	result = e.score(s)
	result.Trigger = trigger
	result.FinalizedAt = now
	result.DurationMinutes = s.DurationSeconds / 60

	s.Finalized = true
	s.Result = &result
	return result.clone(), true
}

// RunSideEffects makes the single persistence and notification calls for a
// session Complete just finalized, recording failures on s.Result.
func (e *Engine) RunSideEffects(ctx context.Context, s *TestSession) ScoreResult {
	if s.Result == nil {
		return ScoreResult{}
	}
	result := s.Result.clone()

	if e.recorder != nil {
		pctx, cancel := context.WithTimeout(ctx, e.timeout)
		err := e.recorder.Record(pctx, e.record(s, result))
		cancel()
		if err != nil {
			result.PersistFailed = true
			result.Warnings = append(result.Warnings, "result could not be saved: "+err.Error())
			e.metrics.sideEffectFailed("persist")
			e.logger.Warn().Err(err).Str("session_id", s.ID).Msg("persist result failed")
		}
	}

	if e.notifier != nil {
		nctx, cancel := context.WithTimeout(ctx, e.timeout)
		err := e.notifier.NotifyResult(nctx, s, result)
		cancel()
		if err != nil {
			result.NotifyFailed = true
			result.Warnings = append(result.Warnings, "scorecard could not be delivered: "+err.Error())
			e.metrics.sideEffectFailed("notify")
			e.logger.Warn().Err(err).Str("session_id", s.ID).Msg("notify result failed")
		}
	}

	s.Result = &result
	e.metrics.sessionFinalized(result.Trigger, result.Points)
	e.logger.Info().
		Str("session_id", s.ID).
		Str("trigger", string(result.Trigger)).
		Int("correct", result.CorrectCount).
		Int("points", result.Points).
		Msg("session finalized")
	return result.clone()
}

func (e *Engine) score(s *TestSession) ScoreResult {
	items := make([]scoring.Item, len(s.Questions))
	for i, q := range s.Questions {
		items[i] = scoring.Item{Chosen: s.Answers[i], Correct: q.CorrectAnswer}
	}
	outcome := e.scorer.Score(items)

	lines := make([]QuestionResult, len(s.Questions))
	for i, q := range s.Questions {
		chosen := append([]string(nil), s.Answers[i]...)
		lines[i] = QuestionResult{
			Index:      i,
			QuestionID: q.ID,
			Subject:    q.Subject,
			Chapter:    q.Chapter,
			Chosen:     chosen,
			Correct:    scoring.NormalizeLabels(q.CorrectAnswer),
			Answered:   len(chosen) > 0,
			IsCorrect:  outcome.PerItem[i],
		}
	}

	return ScoreResult{
		SessionID:        s.ID,
		StudentID:        s.StudentID,
		CorrectCount:     outcome.CorrectCount,
		Points:           outcome.Points,
		PointsPerCorrect: e.scorer.PointsPerCorrect(),
		TotalQuestions:   len(s.Questions),
		MaxPoints:        outcome.MaxPoints,
		Questions:        lines,
	}
}

func (e *Engine) record(s *TestSession, r ScoreResult) results.Record {
	return results.Record{
		SessionID:       s.ID,
		StudentID:       s.StudentID,
		TakenAt:         r.FinalizedAt,
		Score:           r.Points,
		CorrectCount:    r.CorrectCount,
		TotalQuestions:  r.TotalQuestions,
		Subjects:        distinct(s.Questions, func(q question.Question) string { return q.Subject }),
		Chapters:        distinct(s.Questions, func(q question.Question) string { return q.Chapter }),
		Difficulties:    distinct(s.Questions, func(q question.Question) string { return q.Difficulty }),
		DurationMinutes: r.DurationMinutes,
	}
}

func distinct(qs []question.Question, attr func(question.Question) string) []string {
	out := lo.Uniq(lo.Map(qs, func(q question.Question, _ int) string { return attr(q) }))
	sort.Strings(out)
	return out
}
