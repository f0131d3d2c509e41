package memory

import (
	"sync"

	"pretest-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.ProfileStores. Values
// do not survive a restart.
type SessionStore struct {
	mu       sync.RWMutex
	profiles map[string]map[string][]byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		profiles: make(map[string]map[string][]byte),
	}
}

// ForProfile returns the key-value view of one learner profile.
func (s *SessionStore) ForProfile(profileID string) app.SessionStore {
	return &profileStore{parent: s, profile: profileID}
}

// Reset drops every key of a profile.
func (s *SessionStore) Reset(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, profileID)
}

type profileStore struct {
	parent  *SessionStore
	profile string
}

func (p *profileStore) Get(key string) ([]byte, bool, error) {
	p.parent.mu.RLock()
	defer p.parent.mu.RUnlock()
	value, ok := p.parent.profiles[p.profile][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (p *profileStore) Set(key string, value []byte) error {
	p.parent.mu.Lock()
	defer p.parent.mu.Unlock()
	values, ok := p.parent.profiles[p.profile]
	if !ok {
		values = make(map[string][]byte)
		p.parent.profiles[p.profile] = values
	}
	values[key] = append([]byte(nil), value...)
	return nil
}

func (p *profileStore) Remove(key string) error {
	p.parent.mu.Lock()
	defer p.parent.mu.Unlock()
	values, ok := p.parent.profiles[p.profile]
	if !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		delete(p.parent.profiles, p.profile)
	}
	return nil
}
