package params

import "sync"

// Store holds the live filter parameters.
// Readers take snapshots, writers replace the whole value so a snapshot is never half updated.
type Store struct {
	mutex  sync.RWMutex
	params Params
}

// NewStore returns a store holding p
func NewStore(p Params) *Store {
	return &Store{params: p}
}

// CurrentParameters returns a snapshot of the current parameters
func (s *Store) CurrentParameters() Params {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.params
}

// Set validates and replaces the current parameters
func (s *Store) Set(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	s.params = p
	s.mutex.Unlock()

	return nil
}

// Update applies fn to a copy of the current parameters and stores the result if it is valid
func (s *Store) Update(fn func(p *Params)) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	p := s.params
	fn(&p)
	if err := p.Validate(); err != nil {
		return err
	}

	s.params = p
	return nil
}
