package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pretest-quiz-service/internal/app"
)

// SessionStore keeps each profile's session keys in Redis so attempts
// survive restarts and can be resumed from another instance.
// Keys are laid out as: pretest:{profileID}:{key}
type SessionStore struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:  client,
		ttl:     ttl,
		timeout: 2 * time.Second,
	}
}

// ForProfile implements app.ProfileStores.
func (s *SessionStore) ForProfile(profileID string) app.SessionStore {
	return &profileStore{parent: s, prefix: "pretest:" + profileID + ":"}
}

type profileStore struct {
	parent *SessionStore
	prefix string
}

func (p *profileStore) Get(key string) ([]byte, bool, error) {
	ctx, cancel := p.parent.ctx()
	defer cancel()
	raw, err := p.parent.client.Get(ctx, p.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set writes the value and refreshes the TTL; a zero TTL keeps keys forever.
func (p *profileStore) Set(key string, value []byte) error {
	ctx, cancel := p.parent.ctx()
	defer cancel()
	return p.parent.client.Set(ctx, p.prefix+key, value, p.parent.ttl).Err()
}

func (p *profileStore) Remove(key string) error {
	ctx, cancel := p.parent.ctx()
	defer cancel()
	return p.parent.client.Del(ctx, p.prefix+key).Err()
}

func (s *SessionStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
