package sessionstore

import (
	"context"
	"sync"

	"github.com/workgroup/workgroup-client/internal/client/models"
)

// MemoryStore keeps the encoded record in process memory. It goes through
// the same encoding as the durable backends.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return nil, nil
	}
	return decode(s.raw)
}

func (s *MemoryStore) Save(ctx context.Context, session *models.Session) error {
	raw, err := encode(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.raw = nil
	s.mu.Unlock()
	return nil
}

// Raw returns a copy of the stored bytes.
func (s *MemoryStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.raw...)
}

// SetRaw replaces the stored bytes verbatim, bypassing validation.
func (s *MemoryStore) SetRaw(raw []byte) {
	s.mu.Lock()
	s.raw = append([]byte(nil), raw...)
	s.mu.Unlock()
}
