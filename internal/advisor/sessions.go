package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "advisor:v1:"

// SessionStore keeps conversation history per owner and session id.
type SessionStore interface {
	Load(ctx context.Context, ownerID, sessionID string) ([]Message, error)
	Save(ctx context.Context, ownerID, sessionID string, history []Message) error
	// Delete reports whether a conversation existed.
	Delete(ctx context.Context, ownerID, sessionID string) (bool, error)
}

func sessionKey(ownerID, sessionID string) string {
	return keyPrefix + ownerID + ":" + sessionID
}

// RedisSessions stores each conversation as one JSON value whose TTL is
// refreshed on every save.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessions builds a Redis-backed session store.
func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func (s *RedisSessions) Load(ctx context.Context, ownerID, sessionID string) ([]Message, error) {
	raw, err := s.client.Get(ctx, sessionKey(ownerID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load advisor session: %w", err)
	}
	var history []Message
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode advisor session: %w", err)
	}
	return history, nil
}

func (s *RedisSessions) Save(ctx context.Context, ownerID, sessionID string, history []Message) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(ownerID, sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store advisor session: %w", err)
	}
	return nil
}

func (s *RedisSessions) Delete(ctx context.Context, ownerID, sessionID string) (bool, error) {
	n, err := s.client.Del(ctx, sessionKey(ownerID, sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("delete advisor session: %w", err)
	}
	return n > 0, nil
}

// MemorySessions keeps conversations in process. Used in development when
// Redis is not configured.
type MemorySessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

type memorySession struct {
	history   []Message
	expiresAt time.Time
}

// NewMemorySessions builds an empty in-memory session store.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	return &MemorySessions{ttl: ttl, now: time.Now, sessions: make(map[string]memorySession)}
}

func (s *MemorySessions) Load(_ context.Context, ownerID, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(sessionKey(ownerID, sessionID))
	if !ok {
		return nil, nil
	}
	return append([]Message(nil), sess.history...), nil
}

func (s *MemorySessions) Save(_ context.Context, ownerID, sessionID string, history []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey(ownerID, sessionID)] = memorySession{
		history:   append([]Message(nil), history...),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemorySessions) Delete(_ context.Context, ownerID, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(ownerID, sessionID)
	_, ok := s.live(key)
	delete(s.sessions, key)
	return ok, nil
}

// live returns the session under key, dropping it when expired. Callers
// hold mu.
func (s *MemorySessions) live(key string) (memorySession, bool) {
	sess, ok := s.sessions[key]
	if !ok {
		return memorySession{}, false
	}
	if s.ttl > 0 && !s.now().Before(sess.expiresAt) {
		delete(s.sessions, key)
		return memorySession{}, false
	}
	return sess, true
}
