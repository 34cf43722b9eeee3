package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mentors-mantra/internal/question"
)

type managerFixture struct {
	*engineFixture
	store   *MemoryStore
	manager *Manager
}

func newManagerFixture(qs []question.Question) *managerFixture {
	ef := newEngineFixture(qs)
	store := NewMemoryStore()
	return &managerFixture{
		engineFixture: ef,
		store:         store,
		manager:       NewManager(ef.engine, store, zerolog.Nop()),
	}
}

func (f *managerFixture) startFor(t *testing.T, student string, d time.Duration) *TestSession {
	t.Helper()
	s, err := f.manager.Start(context.Background(), student, question.Filter{Count: 3}, d)
	require.NoError(t, err)
	return s
}

func TestManager_StartDiscardsPrevious(t *testing.T) {
	f := newManagerFixture(bankQuestions("A", "B", "C"))
	ctx := context.Background()

	first := f.startFor(t, "student-1", time.Hour)
	second := f.startFor(t, "student-1", time.Hour)
	assert.NotEqual(t, first.ID, second.ID)

	_, err := f.manager.Get(ctx, first.ID, "student-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	current, err := f.manager.Current(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	assert.Zero(t, f.recorder.calls())
}

func TestManager_StartFinalizesExpiredPrevious(t *testing.T) {
	f := newManagerFixture(bankQuestions("A", "B"))

	f.startFor(t, "student-1", 5*time.Minute)
	f.clock.Advance(6 * time.Minute)
	f.startFor(t, "student-1", time.Hour)

	assert.Equal(t, 1, f.recorder.calls())
}

func TestManager_CurrentWithoutSession(t *testing.T) {
	f := newManagerFixture(bankQuestions("A"))
	_, err := f.manager.Current(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_Ownership(t *testing.T) {
	f := newManagerFixture(bankQuestions("A"))
	ctx := context.Background()
	s := f.startFor(t, "student-1", time.Hour)

	_, err := f.manager.Get(ctx, s.ID, "student-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = f.manager.RecordAnswer(ctx, s.ID, "student-2", 0, []string{"A"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = f.manager.Submit(ctx, s.ID, "student-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, f.recorder.calls())
}

func TestManager_AnswerAndSubmit(t *testing.T) {
	f := newManagerFixture(bankQuestions("A", "BD", "C"))
	ctx := context.Background()
	s := f.startFor(t, "student-1", time.Hour)

	_, applied, err := f.manager.RecordAnswer(ctx, s.ID, "student-1", 0, []string{"A"})
	require.NoError(t, err)
	assert.True(t, applied)

	got, applied, err := f.manager.RecordAnswer(ctx, s.ID, "student-1", 1, []string{"B", "D"})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Len(t, got.Answers, 2)

	_, applied, err = f.manager.RecordAnswer(ctx, s.ID, "student-1", 9, []string{"A"})
	require.NoError(t, err)
	assert.False(t, applied)

	done, result, err := f.manager.Submit(ctx, s.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, done.State)
	assert.Equal(t, 8, result.Points)
	assert.Equal(t, TriggerSubmit, result.Trigger)

	stored, err := f.manager.Get(ctx, s.ID, "student-1")
	require.NoError(t, err)
	require.NotNil(t, stored.Result)
	assert.Equal(t, result, *stored.Result)

	_, repeat, err := f.manager.Submit(ctx, s.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, result, repeat)
	assert.Equal(t, 1, f.recorder.calls())
	assert.Equal(t, 1, f.notifier.calls())
}

func TestManager_GetFinalizesAfterDeadline(t *testing.T) {
	f := newManagerFixture(bankQuestions("A"))
	ctx := context.Background()
	s := f.startFor(t, "student-1", 10*time.Minute)
	_, _, err := f.manager.RecordAnswer(ctx, s.ID, "student-1", 0, []string{"A"})
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)

	got, err := f.manager.Get(ctx, s.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, got.State)
	require.NotNil(t, got.Result)
	assert.Equal(t, TriggerDeadline, got.Result.Trigger)
	assert.Equal(t, 4, got.Result.Points)

	_, applied, err := f.manager.RecordAnswer(ctx, s.ID, "student-1", 0, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	_, result, err := f.manager.Submit(ctx, s.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, TriggerDeadline, result.Trigger)
	assert.Equal(t, 1, f.recorder.calls())
}

func TestManager_ConcurrentSubmitFinalizesOnce(t *testing.T) {
	f := newManagerFixture(bankQuestions("A", "B"))
	ctx := context.Background()
	s := f.startFor(t, "student-1", time.Hour)

	var wg sync.WaitGroup
	points := make([]int, 8)
	for i := range points {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, r, err := f.manager.Submit(ctx, s.ID, "student-1")
			if err == nil {
				points[i] = r.MaxPoints
			}
		}(i)
	}
	wg.Wait()

	for _, p := range points {
		assert.Equal(t, 8, p)
	}
	assert.Equal(t, 1, f.recorder.calls())
	assert.Equal(t, 1, f.notifier.calls())
}

func TestManager_FinalizeDue(t *testing.T) {
	f := newManagerFixture(bankQuestions("A"))
	ctx := context.Background()
	short := f.startFor(t, "student-1", 5*time.Minute)
	long := f.startFor(t, "student-2", time.Hour)

	f.clock.Advance(6 * time.Minute)
	n, err := f.manager.FinalizeDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	done, err := f.store.Load(ctx, short.ID)
	require.NoError(t, err)
	assert.True(t, done.Finalized)

	open, err := f.store.Load(ctx, long.ID)
	require.NoError(t, err)
	assert.Equal(t, StateActive, open.State)

	n, err = f.manager.FinalizeDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, f.recorder.calls())
}

func TestExpiryWorker_RunStopsOnCancel(t *testing.T) {
	f := newManagerFixture(bankQuestions("A"))
	s := f.startFor(t, "student-1", time.Minute)
	f.clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewExpiryWorker(f.manager, 5*time.Millisecond, zerolog.Nop())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := f.store.Load(context.Background(), s.ID)
		return err == nil && got.Finalized
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

// failingStore fails the nth save of a finalized session (1-based).
type failingStore struct {
	*MemoryStore
	mu     sync.Mutex
	failAt map[int]bool
	saves  int
}

func (s *failingStore) Save(ctx context.Context, sess *TestSession) error {
	if sess.Finalized {
		s.mu.Lock()
		s.saves++
		fail := s.failAt[s.saves]
		s.mu.Unlock()
		if fail {
			return errors.New("redis unavailable")
		}
	}
	return s.MemoryStore.Save(ctx, sess)
}

func newFailingManager(qs []question.Question, failAt ...int) (*managerFixture, *failingStore) {
	ef := newEngineFixture(qs)
	store := &failingStore{MemoryStore: NewMemoryStore(), failAt: map[int]bool{}}
	for _, n := range failAt {
		store.failAt[n] = true
	}
	return &managerFixture{
		engineFixture: ef,
		store:         store.MemoryStore,
		manager:       NewManager(ef.engine, store, zerolog.Nop()),
	}, store
}

func TestManager_SubmitGuardSaveFailureSkipsSideEffects(t *testing.T) {
	f, _ := newFailingManager(bankQuestions("A"), 1)
	ctx := context.Background()
	s := f.startFor(t, "student-1", time.Hour)

	_, _, err := f.manager.Submit(ctx, s.ID, "student-1")
	require.Error(t, err)
	assert.Zero(t, f.recorder.calls())
	assert.Zero(t, f.notifier.calls())

	_, result, err := f.manager.Submit(ctx, s.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, TriggerSubmit, result.Trigger)

	_, _, err = f.manager.Submit(ctx, s.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.recorder.calls())
	assert.Equal(t, 1, f.notifier.calls())
}

func TestManager_SubmitStatusSaveFailureIsWarning(t *testing.T) {
	f, _ := newFailingManager(bankQuestions("A"), 2)
	ctx := context.Background()
	s := f.startFor(t, "student-1", time.Hour)

	done, result, err := f.manager.Submit(ctx, s.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, done.State)
	assert.NotEmpty(t, result.Warnings)

	_, _, err = f.manager.Submit(ctx, s.ID, "student-1")
	require.NoError(t, err)
	got, err := f.manager.Get(ctx, s.ID, "student-1")
	require.NoError(t, err)
	assert.True(t, got.Finalized)
	assert.Equal(t, 1, f.recorder.calls())
	assert.Equal(t, 1, f.notifier.calls())
}

func TestManager_DeadlineSweepAfterGuardSaveFailure(t *testing.T) {
	f, _ := newFailingManager(bankQuestions("A"), 1)
	ctx := context.Background()
	s := f.startFor(t, "student-1", time.Minute)
	f.clock.Advance(2 * time.Minute)

	_, err := f.manager.Get(ctx, s.ID, "student-1")
	require.Error(t, err)

	closed, err := f.manager.FinalizeDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	closed, err = f.manager.FinalizeDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)
	assert.Equal(t, 1, f.recorder.calls())
	assert.Equal(t, 1, f.notifier.calls())
}
