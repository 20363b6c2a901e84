package widget

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexedwards/scs/v2"
)

// TokenKey is the storage slot holding the platform token.
const TokenKey = "growthlab_token"

// Storage persists the widget's platform token between resolutions.
type Storage interface {
	Load() (string, error)
	Store(token string) error
	Clear() error
}

// MemoryStorage keeps the token in process memory.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStorage) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Store(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) Clear() error {
	return m.Store("")
}

// SessionStorage keeps the token in an SCS session. ctx must carry a session
// loaded by the manager; every write is committed immediately because a
// bridge connection never passes through LoadAndSave.
type SessionStorage struct {
	sessions *scs.SessionManager
	ctx      context.Context
}

// NewSessionStorage binds storage to the session loaded into ctx.
func NewSessionStorage(ctx context.Context, sm *scs.SessionManager) *SessionStorage {
	return &SessionStorage{sessions: sm, ctx: ctx}
}

func (s *SessionStorage) Load() (string, error) {
	return s.sessions.GetString(s.ctx, TokenKey), nil
}

func (s *SessionStorage) Store(token string) error {
	s.sessions.Put(s.ctx, TokenKey, token)
	return s.commit()
}

func (s *SessionStorage) Clear() error {
	s.sessions.Remove(s.ctx, TokenKey)
	return s.commit()
}

func (s *SessionStorage) commit() error {
	if _, _, err := s.sessions.Commit(s.ctx); err != nil {
		return fmt.Errorf("commit widget session: %w", err)
	}
	return nil
}
