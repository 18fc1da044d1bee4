package statestore

import (
	"sync"

	"github.com/pkg/errors"
)

// InMemoryKV is the fallback store used when the on-disk database cannot be
// opened, and the store of choice in tests. Contents vanish with the
// process; the client keeps running on it without complaint.
type InMemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

var _ KV = &InMemoryKV{}

func NewInMemoryKV() *InMemoryKV {
	return &InMemoryKV{values: map[string][]byte{}}
}

func (s *InMemoryKV) Get(key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, errors.New("in-memory kv: nil store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *InMemoryKV) Set(key string, value []byte) error {
	if s == nil {
		return errors.New("in-memory kv: nil store")
	}
	if key == "" {
		return errors.New("in-memory kv: key is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

func (s *InMemoryKV) Delete(key string) error {
	if s == nil {
		return errors.New("in-memory kv: nil store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *InMemoryKV) Close() error { return nil }
