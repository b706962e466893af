package identity

import (
	"errors"
	"sync"
)

// Store shares one Manager per identity file so concurrent logins using the
// same file mutate a single identity.
type Store struct {
	mu       sync.Mutex
	managers map[string]*Manager
}

func NewStore() *Store {
	return &Store{managers: make(map[string]*Manager)}
}

// Manager loads path on first use.
func (s *Store) Manager(path string) (*Manager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.managers[path]; ok {
		return m, nil
	}
	id, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := NewManager(id)
	s.managers[path] = m
	return m, nil
}

// Save writes the current state of the identity loaded from path. Saves of
// one path are serialised and the snapshot is taken under that lock, so the
// last save to finish holds the newest state.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	m, ok := s.managers[path]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	return Save(path, m.Snapshot())
}

// SaveAll writes back every loaded identity.
func (s *Store) SaveAll() error {
	s.mu.Lock()
	paths := make([]string, 0, len(s.managers))
	for path := range s.managers {
		paths = append(paths, path)
	}
	s.mu.Unlock()

	var errs []error
	for _, path := range paths {
		if err := s.Save(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
