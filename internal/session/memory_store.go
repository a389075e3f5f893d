package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

// MemoryStore keeps the record in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	logger *zap.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{values: map[string]string{}, logger: logger}
}

func (m *MemoryStore) Save(_ context.Context, s *domain.Session) error {
	token, user, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[KeyToken] = token
	m.values[KeyUser] = user
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (*domain.Session, error) {
	m.mu.Lock()
	token, user := m.values[KeyToken], m.values[KeyUser]
	m.mu.Unlock()

	s, err := decode(token, user)
	if err != nil {
		m.logger.Warn("ignoring stored session", zap.Error(err))
		return nil, nil
	}
	return s, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, KeyToken)
	delete(m.values, KeyUser)
	return nil
}

// put writes a raw key, bypassing encoding.
func (m *MemoryStore) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}
