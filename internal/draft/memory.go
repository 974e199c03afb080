package draft

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/thena-travel/flightdesk/internal/workflow"
)

// MemoryStore is the in-process fallback used when Redis is not configured,
// and the backing for tests. Sessions are stored as JSON copies so callers
// never share memory with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string][]byte{}}
}

func (s *MemoryStore) Save(_ context.Context, session *workflow.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = payload
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*workflow.Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, workflow.ErrSessionNotFound
	}

	var session workflow.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MemoryStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

var _ workflow.DraftStore = (*MemoryStore)(nil)
