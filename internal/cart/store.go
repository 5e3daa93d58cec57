package cart

import "sync"

// Store keeps one cart per session id. Carts live only in process memory;
// an abandoned cart disappears with the session.
type Store struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[string]*Cart)}
}

// Get returns the cart for sid, creating it on first use.
func (s *Store) Get(sid string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sid]
	if !ok {
		c = New()
		s.carts[sid] = c
	}
	return c
}

// With runs fn while holding the store lock, serializing cart mutations for
// the same session arriving from parallel requests.
func (s *Store) With(sid string, fn func(*Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sid]
	if !ok {
		c = New()
		s.carts[sid] = c
	}
	return fn(c)
}

// Drop removes the session's cart entirely.
func (s *Store) Drop(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sid)
}
