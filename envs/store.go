package envs

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is the session-scoped key→value map. It outlives individual runs and
// dies with the session. Only one plan runs per session at a time, but the
// bounded map primitive can touch it from worker goroutines, so access is
// still serialized.
type Store struct {
	ID     string
	mu     sync.Mutex
	values map[string]any
}

func NewStore() *Store {
	return &Store{
		ID:     uuid.NewString(),
		values: make(map[string]any),
	}
}

func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Store) Get(key string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Append adds value to the list at key. A missing or non-list value is
// replaced by a new one-element list.
func (s *Store) Append(key string, value any) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.values[key].([]any)
	if !ok {
		list = nil
	}
	list = append(list, value)
	s.values[key] = list
	return list
}

func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) All() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}
