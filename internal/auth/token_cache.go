package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
)

const sessionKeyPrefix = "reservation:session:"

type SessionStore interface {
	Save(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// RedisSessionStore keeps sessions as JSON with a TTL matching their expiry.
type RedisSessionStore struct {
	Client *redis.Client
	Clock  utils.Clock
}

func NewRedisSessionStore(client *redis.Client, clock utils.Clock) *RedisSessionStore {
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	return &RedisSessionStore{Client: client, Clock: clock}
}

func (c *RedisSessionStore) Save(ctx context.Context, s models.Session) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	ttl := s.ExpiresAt.Sub(c.Clock.Now())
	if ttl <= 0 {
		return models.Validationf("session %s already expired", s.ID)
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.Client.Set(ctx, sessionKeyPrefix+s.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to store session in Redis: %v", models.ErrUnavailable, err)
	}
	return nil
}

func (c *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	raw, err := c.Client.Get(ctx, sessionKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, models.ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("%w: failed to get session from Redis: %v", models.ErrUnavailable, err)
	}

	var s models.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if !c.Clock.Now().Before(s.ExpiresAt) {
		return nil, models.ErrSessionNotFound
	}
	return &s, nil
}

func (c *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := c.Client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("%w: failed to delete session from Redis: %v", models.ErrUnavailable, err)
	}
	return nil
}

type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	clock    utils.Clock
}

func NewMemorySessionStore(clock utils.Clock) *MemorySessionStore {
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	return &MemorySessionStore{sessions: map[string]models.Session{}, clock: clock}
}

func (m *MemorySessionStore) Save(ctx context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if !m.clock.Now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return nil, models.ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
