package question

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// Bank is the storage behind the gateway.
type Bank interface {
	Match(ctx context.Context, f Filter) ([]Question, error)
	Image(ctx context.Context, id string) ([]byte, error)
	Catalog(ctx context.Context) (map[string][]string, error)
}

// PoolCache stores the full match set for a normalized filter.
type PoolCache interface {
	Get(ctx context.Context, f Filter) ([]Question, bool, error)
	Set(ctx context.Context, f Filter, pool []Question) error
}

// ServiceOptions tunes the gateway.
type ServiceOptions struct {
	Cache        PoolCache
	FetchTimeout time.Duration
	// Shuffle defaults to math/rand/v2's Shuffle.
	Shuffle func(n int, swap func(i, j int))
}

// Service is the question bank gateway: it filters the bank and draws a
// uniform random sample without replacement.
type Service struct {
	bank    Bank
	cache   PoolCache
	timeout time.Duration
	shuffle func(n int, swap func(i, j int))
	logger  zerolog.Logger
}

func NewService(bank Bank, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}
	return &Service{
		bank:    bank,
		cache:   opts.Cache,
		timeout: opts.FetchTimeout,
		shuffle: opts.Shuffle,
		logger:  logger.With().Str("component", "question_gateway").Logger(),
	}
}

// Fetch returns min(f.Count, matches) distinct questions satisfying f. No
// match yields an empty slice and no error.
func (s *Service) Fetch(ctx context.Context, f Filter) ([]Question, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pool, err := s.pool(ctx, f)
	if err != nil {
		return nil, err
	}

	picked := make([]Question, len(pool))
	copy(picked, pool)
	s.shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if len(picked) > f.Count {
		picked = picked[:f.Count]
	}

	s.logger.Debug().
		Strs("subjects", f.Subjects).
		Strs("chapters", f.Chapters).
		Strs("difficulties", f.Difficulties).
		Int("matches", len(pool)).
		Int("drawn", len(picked)).
		Msg("questions drawn")
	return picked, nil
}

func (s *Service) pool(ctx context.Context, f Filter) ([]Question, error) {
	if s.cache != nil {
		pool, ok, err := s.cache.Get(ctx, f)
		if err != nil {
			s.logger.Warn().Err(err).Msg("question pool cache read failed")
		} else if ok {
			return pool, nil
		}
	}

	pool, err := s.bank.Match(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	if s.cache != nil && len(pool) > 0 {
		if err := s.cache.Set(ctx, f, pool); err != nil {
			s.logger.Warn().Err(err).Msg("question pool cache write failed")
		}
	}
	return pool, nil
}

// Catalog returns subject -> chapters present in the bank.
func (s *Service) Catalog(ctx context.Context) (map[string][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.bank.Catalog(ctx)
}

// Image returns a question image scaled to fit maxWidth x maxHeight. Zero
// bounds keep the original size.
func (s *Service) Image(ctx context.Context, id string, maxWidth, maxHeight int) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.bank.Image(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return Thumbnail(data, maxWidth, maxHeight)
}
