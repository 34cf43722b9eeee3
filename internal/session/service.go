package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/question"
)

// Manager is the id-keyed front of the Engine. Every mutation runs under the
// store's per-session lock; reads finalize sessions whose deadline passed.
type Manager struct {
	engine *Engine
	store  Store
	logger zerolog.Logger
}

func NewManager(engine *Engine, store Store, logger zerolog.Logger) *Manager {
	return &Manager{
		engine: engine,
		store:  store,
		logger: logger.With().Str("component", "session_manager").Logger(),
	}
}

// Engine exposes the lifecycle engine for time queries.
func (m *Manager) Engine() *Engine {
	return m.engine
}

// Start opens a new session for studentID and discards the student's
// previous one, finalizing it first if its deadline already passed.
func (m *Manager) Start(ctx context.Context, studentID string, f question.Filter, duration time.Duration) (*TestSession, error) {
	s, err := m.engine.Start(ctx, studentID, f, duration)
	if err != nil {
		return nil, err
	}

	if prev, err := m.store.Current(ctx, studentID); err != nil {
		m.logger.Warn().Err(err).Str("student_id", studentID).Msg("lookup previous session failed")
	} else if prev != "" {
		_, err := m.withLock(ctx, prev, studentID, m.expire)
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn().Err(err).Str("session_id", prev).Msg("finalize previous session failed")
		}
		if err := m.store.Delete(ctx, prev); err != nil {
			m.logger.Warn().Err(err).Str("session_id", prev).Msg("discard previous session failed")
		}
	}

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := m.store.SetCurrent(ctx, studentID, s.ID); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.Clone(), nil
}

// Get returns the session, finalizing it first if its deadline has passed.
// A non-empty studentID must own the session.
func (m *Manager) Get(ctx context.Context, id, studentID string) (*TestSession, error) {
	s, err := m.withLock(ctx, id, studentID, m.expire)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// Current returns the student's latest session.
func (m *Manager) Current(ctx context.Context, studentID string) (*TestSession, error) {
	id, err := m.store.Current(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrSessionNotFound
	}
	return m.Get(ctx, id, studentID)
}

// RecordAnswer sets the selection for question index. applied is false when
// the session had already closed or the index was out of range.
func (m *Manager) RecordAnswer(ctx context.Context, id, studentID string, index int, labels []string) (*TestSession, bool, error) {
	var applied bool
	s, err := m.withLock(ctx, id, studentID, func(s *TestSession) mutation {
		if mut := m.expire(s); mut != unchanged {
			return mut
		}
		applied = m.engine.RecordAnswer(s, index, labels)
		if applied {
			return changed
		}
		return unchanged
	})
	if err != nil {
		return nil, false, err
	}
	return s.Clone(), applied, nil
}

// Submit finalizes the session on the student's request. Submitting a
// finalized session returns its stored result.
func (m *Manager) Submit(ctx context.Context, id, studentID string) (*TestSession, ScoreResult, error) {
	s, err := m.withLock(ctx, id, studentID, func(s *TestSession) mutation {
		if mut := m.expire(s); mut != unchanged {
			return mut
		}
		lost := s.Finalized && s.Result == nil
		if _, fresh := m.engine.Complete(s, TriggerSubmit); fresh {
			return completed
		}
		if lost {
			return changed
		}
		return unchanged
	})
	if err != nil {
		return nil, ScoreResult{}, err
	}
	var result ScoreResult
	if s.Result != nil {
		result = s.Result.clone()
	}
	return s.Clone(), result, nil
}

// FinalizeDue finalizes every active session whose deadline has passed and
// returns how many it closed.
func (m *Manager) FinalizeDue(ctx context.Context) (int, error) {
	ids, err := m.store.DueBefore(ctx, m.engine.now())
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, id := range ids {
		var due bool
		_, err := m.withLock(ctx, id, "", func(s *TestSession) mutation {
			mut := m.expire(s)
			due = mut == completed
			return mut
		})
		switch {
		case err == nil && due:
			closed++
		case err != nil && !errors.Is(err, ErrSessionNotFound):
			m.logger.Warn().Err(err).Str("session_id", id).Msg("deadline finalize failed")
		}
	}
	return closed, nil
}

// mutation tells withLock what fn did to the loaded session.
type mutation int

const (
	unchanged mutation = iota
	changed
	// completed means the session was just finalized and its side effects
	// are still owed.
	completed
)

// expire completes s with the deadline trigger when it is active and out of
// time.
func (m *Manager) expire(s *TestSession) mutation {
	if s.Finalized || !m.engine.IsExpired(s) {
		return unchanged
	}
	if _, fresh := m.engine.Complete(s, TriggerDeadline); fresh {
		return completed
	}
	return unchanged
}

// withLock loads id under its lock, applies fn and saves the result. A
// completed session is saved with its finalized guard before its result is
// persisted or mailed.
func (m *Manager) withLock(ctx context.Context, id, studentID string, fn func(s *TestSession) mutation) (*TestSession, error) {
	unlock, err := m.store.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if studentID != "" && s.StudentID != studentID {
		return nil, ErrSessionNotFound
	}

	switch fn(s) {
	case changed:
		if err := m.store.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	case completed:
		if err := m.store.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		m.engine.RunSideEffects(ctx, s)
		if err := m.store.Save(ctx, s); err != nil {
			m.logger.Warn().Err(err).Str("session_id", s.ID).Msg("save side-effect status failed")
			s.Result.Warnings = append(s.Result.Warnings, "result status could not be saved: "+err.Error())
		}
	}
	return s, nil
}
