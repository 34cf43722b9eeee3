package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/pkg/http/ws"
)

// ExpiryWorker finalizes sessions whose deadline passed while nobody was
// looking, so results are recorded and delivered without a client.
type ExpiryWorker struct {
	manager  *Manager
	interval time.Duration
	logger   zerolog.Logger
}

func NewExpiryWorker(manager *Manager, interval time.Duration, logger zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &ExpiryWorker{
		manager:  manager,
		interval: interval,
		logger:   logger.With().Str("component", "expiry_worker").Logger(),
	}
}

// Run sweeps until ctx is cancelled.
func (w *ExpiryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("expiry worker stopping")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	n, err := w.manager.FinalizeDue(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("expiry sweep failed")
		return
	}
	if n > 0 {
		w.logger.Info().Int("finalized", n).Msg("expired sessions finalized")
	}
}

// CountdownBroadcaster pushes the remaining time to every watched session
// once per tick and announces completion.
type CountdownBroadcaster struct {
	manager  *Manager
	hub      *ws.Hub
	interval time.Duration
	logger   zerolog.Logger
}

func NewCountdownBroadcaster(manager *Manager, hub *ws.Hub, interval time.Duration, logger zerolog.Logger) *CountdownBroadcaster {
	if interval <= 0 {
		interval = time.Second
	}
	return &CountdownBroadcaster{
		manager:  manager,
		hub:      hub,
		interval: interval,
		logger:   logger.With().Str("component", "countdown").Logger(),
	}
}

// Run ticks until ctx is cancelled.
func (b *CountdownBroadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, id := range b.hub.Topics() {
				b.Push(ctx, id)
			}
		}
	}
}

// Push sends the current status of session id to its watchers.
func (b *CountdownBroadcaster) Push(ctx context.Context, id string) {
	s, err := b.manager.Get(ctx, id, "")
	if err != nil {
		b.logger.Debug().Err(err).Str("session_id", id).Msg("countdown lookup failed")
		if msg, mErr := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: "session_unavailable", Message: err.Error()}); mErr == nil {
			_ = b.hub.Publish(id, msg)
		}
		b.hub.CloseTopic(id)
		return
	}

	if s.State == StateCompleted && s.Result != nil {
		msg, err := ws.NewMessage(ws.TypeSessionComplete, s.Result)
		if err == nil {
			_ = b.hub.Publish(id, msg)
		}
		b.hub.CloseTopic(id)
		return
	}

	msg, err := ws.NewMessage(ws.TypeCountdown, ws.CountdownPayload{
		SessionID:        s.ID,
		RemainingSeconds: int(b.manager.Engine().RemainingTime(s) / time.Second),
		Answered:         len(s.Answers),
		Total:            len(s.Questions),
	})
	if err != nil {
		return
	}
	_ = b.hub.Publish(id, msg)
}
