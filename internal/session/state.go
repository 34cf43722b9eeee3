package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	deadlineIndexKey = "session:deadlines"
	lockTTL          = 60 * time.Second
	lockRetry        = 25 * time.Millisecond
)

var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisStore keeps sessions in Redis so several API instances share them.
// Locks are SETNX keys owned by a random token and released with a
// compare-and-delete script.
type RedisStore struct {
	redis     *redis.Client
	retention time.Duration
	lockWait  time.Duration
	logger    zerolog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store. retention bounds how long
// session records outlive their deadline.
func NewRedisStore(client *redis.Client, retention, lockWait time.Duration, logger zerolog.Logger) *RedisStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	return &RedisStore{
		redis:     client,
		retention: retention,
		lockWait:  lockWait,
		logger:    logger.With().Str("component", "session_store").Logger(),
	}
}

func sessionKey(id string) string { return fmt.Sprintf("session:data:%s", id) }
func lockKey(id string) string { return fmt.Sprintf("session:lock:%s", id) }
func studentKey(studentID string) string { return fmt.Sprintf("session:student:%s", studentID) }

func (r *RedisStore) Save(ctx context.Context, s *TestSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(s.Deadline()) + r.retention
	if ttl < r.retention {
		ttl = r.retention
	}

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, sessionKey(s.ID), data, ttl)
	if s.State == StateActive {
		pipe.ZAdd(ctx, deadlineIndexKey, redis.Z{Score: float64(s.Deadline().UnixMilli()), Member: s.ID})
	} else {
		pipe.ZRem(ctx, deadlineIndexKey, s.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*TestSession, error) {
	data, err := r.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s TestSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if s.Answers == nil {
		s.Answers = make(map[int][]string)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := r.redis.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.ZRem(ctx, deadlineIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Lock retries SETNX until acquired, lockWait elapses or ctx ends. The lock
// expires after lockTTL if the holder dies.
func (r *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	key := lockKey(id)
	token := uuid.New().String()
	deadline := time.Now().Add(r.lockWait)

	for {
		acquired, err := r.redis.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetry):
		}
	}

	unlock := func() {
		// the request context may already be cancelled
		uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := unlockScript.Run(uctx, r.redis, []string{key}, token).Err(); err != nil {
			r.logger.Warn().Err(err).Str("session_id", id).Msg("release lock failed")
		}
	}
	return unlock, nil
}

func (r *RedisStore) Current(ctx context.Context, studentID string) (string, error) {
	id, err := r.redis.Get(ctx, studentKey(studentID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get current session: %w", err)
	}
	return id, nil
}

func (r *RedisStore) SetCurrent(ctx context.Context, studentID, sessionID string) error {
	return r.redis.Set(ctx, studentKey(studentID), sessionID, r.retention).Err()
}

func (r *RedisStore) DueBefore(ctx context.Context, t time.Time) ([]string, error) {
	ids, err := r.redis.ZRangeByScore(ctx, deadlineIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(t.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due sessions: %w", err)
	}
	return ids, nil
}
