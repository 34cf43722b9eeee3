package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := &TestSession{ID: "s1", StudentID: "student-1", Answers: map[int][]string{0: {"A"}}, State: StateActive}
	require.NoError(t, store.Save(ctx, s))

	s.Answers[0][0] = "B"
	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got.Answers[0])

	got.Answers[1] = []string{"C"}
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, again.Answers, 1)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_Current(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Current(ctx, "student-1")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.SetCurrent(ctx, "student-1", "s2"))
	id, err = store.Current(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "s2", id)
}

func TestMemoryStore_DueBefore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, &TestSession{ID: "short", StartedAt: start, DurationSeconds: 60, State: StateActive}))
	require.NoError(t, store.Save(ctx, &TestSession{ID: "long", StartedAt: start, DurationSeconds: 3600, State: StateActive}))
	require.NoError(t, store.Save(ctx, &TestSession{ID: "done", StartedAt: start, DurationSeconds: 60, State: StateCompleted}))

	ids, err := store.DueBefore(ctx, start.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, ids)

	ids, err = store.DueBefore(ctx, start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"long", "short"}, ids)
}

func TestMemoryStore_LockSerializes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	unlock, err := store.Lock(ctx, "s1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		release, err := store.Lock(ctx, "s1")
		if err == nil {
			release()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}
