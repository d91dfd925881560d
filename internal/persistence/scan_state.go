package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lexdesk/case-service/internal/domain"
)

const (
	scanLockKey    = "vacation-scan:lock"
	scanSummaryKey = "vacation-scan:last-summary"
)

// ReleaseFunc gives a held lock back.
type ReleaseFunc func(ctx context.Context) error

// releaseScript deletes the lock only when it still carries our token, so an
// expired lock taken over by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisScanState keeps the vacation scan run lock and last summary in Redis,
// shared by every replica.
type RedisScanState struct {
	client *redis.Client
	prefix string
}

// NewRedisScanState builds the Redis-backed state. prefix namespaces keys.
func NewRedisScanState(r *Redis, prefix string) *RedisScanState {
	return &RedisScanState{client: r.Client, prefix: prefix}
}

func (s *RedisScanState) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + ":" + name
}

// Acquire takes the run lock for at most ttl. acquired is false when another
// run holds it.
func (s *RedisScanState) Acquire(ctx context.Context, ttl time.Duration) (ReleaseFunc, bool, error) {
	token := uuid.NewString()
	key := s.key(scanLockKey)
	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release scan lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}

// SaveSummary stores the latest scan summary.
func (s *RedisScanState) SaveSummary(ctx context.Context, summary *domain.ScanSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode scan summary: %w", err)
	}
	return s.client.Set(ctx, s.key(scanSummaryKey), payload, 0).Err()
}

// LastSummary returns the latest stored summary, or nil when none exists.
func (s *RedisScanState) LastSummary(ctx context.Context) (*domain.ScanSummary, error) {
	payload, err := s.client.Get(ctx, s.key(scanSummaryKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var summary domain.ScanSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("decode scan summary: %w", err)
	}
	return &summary, nil
}

// MemoryScanState is the single-process variant used without Redis.
type MemoryScanState struct {
	mu      sync.Mutex
	held    bool
	expires time.Time
	last    *domain.ScanSummary
	now     func() time.Time
}

// NewMemoryScanState creates an unlocked state.
func NewMemoryScanState() *MemoryScanState {
	return &MemoryScanState{now: time.Now}
}

// Acquire takes the in-process lock. An expired lock can be taken over.
func (s *MemoryScanState) Acquire(_ context.Context, ttl time.Duration) (ReleaseFunc, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.held && now.Before(s.expires) {
		return nil, false, nil
	}
	s.held = true
	s.expires = now.Add(ttl)
	expires := s.expires
	release := func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.held && s.expires.Equal(expires) {
			s.held = false
		}
		return nil
	}
	return release, true, nil
}

// SaveSummary keeps the latest summary in memory.
func (s *MemoryScanState) SaveSummary(_ context.Context, summary *domain.ScanSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = summary
	return nil
}

// LastSummary returns the stored summary, or nil.
func (s *MemoryScanState) LastSummary(context.Context) (*domain.ScanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}
