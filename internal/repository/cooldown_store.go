package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/cache"
)

// MemoryCooldownStore keeps the last emission per alert key for the life of
// the process. Records are overwritten, never deleted.
type MemoryCooldownStore struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{last: make(map[string]time.Time)}
}

// Acquire records now for key when no record exists or the cooldown has
// strictly elapsed since the previous one.
func (s *MemoryCooldownStore) Acquire(_ context.Context, key string, now time.Time, cooldown time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.last[key]; ok && now.Sub(prev) <= cooldown {
		return false, nil
	}
	s.last[key] = now
	return true, nil
}

func (s *MemoryCooldownStore) Last(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.last[key]
	return t, ok, nil
}

// CacheCooldownStore shares cooldowns between processes through a cache
// backend. Each key is written with SET NX and a TTL of the cooldown, so an
// expired key means the cooldown has elapsed.
type CacheCooldownStore struct {
	cache cache.Service
}

func NewCacheCooldownStore(c cache.Service) *CacheCooldownStore {
	return &CacheCooldownStore{cache: c}
}

func (s *CacheCooldownStore) Acquire(ctx context.Context, key string, now time.Time, cooldown time.Duration) (bool, error) {
	ok, err := s.cache.SetNX(ctx, cooldownKey(key), strconv.FormatInt(now.UnixMilli(), 10), cooldown)
	if err != nil {
		return false, fmt.Errorf("acquire cooldown %s: %w", key, err)
	}
	return ok, nil
}

func (s *CacheCooldownStore) Last(ctx context.Context, key string) (time.Time, bool, error) {
	var raw string
	if err := s.cache.Get(ctx, cooldownKey(key), &raw); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("cooldown %s: %w", key, err)
	}
	return time.UnixMilli(ms), true, nil
}

func cooldownKey(key string) string {
	return cache.Key("cooldown", key)
}

var (
	_ repository.CooldownStore = (*MemoryCooldownStore)(nil)
	_ repository.CooldownStore = (*CacheCooldownStore)(nil)
)
