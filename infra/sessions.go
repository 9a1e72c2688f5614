package infra

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionStore keeps the per-session "current record" pointer for each object
// type. The pointer is explicit session state: the matching engine receives
// it as input and hands an updated value back, nothing is global.
type SessionStore interface {
	CurrentRecord(ctx context.Context, sessionID, otype string) (int64, bool)
	SetCurrentRecord(ctx context.Context, sessionID, otype string, recordID int64) error
	ClearCurrentRecord(ctx context.Context, sessionID, otype string) error
}

const sessionTTL = 12 * time.Hour

// RedisSessionStore persists pointers in Redis so sessions survive restarts
// and multiple replicas.
type RedisSessionStore struct {
	redis *RedisClient
}

func NewRedisSessionStore(redis *RedisClient) *RedisSessionStore {
	return &RedisSessionStore{redis: redis}
}

func sessionKey(sessionID, otype string) string {
	return fmt.Sprintf("session:%s:current:%s", sessionID, otype)
}

func (s *RedisSessionStore) CurrentRecord(ctx context.Context, sessionID, otype string) (int64, bool) {
	var id int64
	if err := s.redis.Get(ctx, sessionKey(sessionID, otype), &id); err != nil {
		return 0, false
	}
	return id, id > 0
}

func (s *RedisSessionStore) SetCurrentRecord(ctx context.Context, sessionID, otype string, recordID int64) error {
	return s.redis.Set(ctx, sessionKey(sessionID, otype), recordID, sessionTTL)
}

func (s *RedisSessionStore) ClearCurrentRecord(ctx context.Context, sessionID, otype string) error {
	return s.redis.Delete(ctx, sessionKey(sessionID, otype))
}

// MemorySessionStore is the fallback for single-box deployments without
// Redis, and for tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	pointers map[string]int64
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{pointers: make(map[string]int64)}
}

func (s *MemorySessionStore) CurrentRecord(_ context.Context, sessionID, otype string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pointers[sessionKey(sessionID, otype)]
	return id, ok
}

func (s *MemorySessionStore) SetCurrentRecord(_ context.Context, sessionID, otype string, recordID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointers[sessionKey(sessionID, otype)] = recordID
	return nil
}

func (s *MemorySessionStore) ClearCurrentRecord(_ context.Context, sessionID, otype string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pointers, sessionKey(sessionID, otype))
	return nil
}
