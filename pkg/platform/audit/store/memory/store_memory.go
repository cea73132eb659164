package memory

import (
	"context"
	"sync"

	id "evonft/pkg/domain"
	audit "evonft/pkg/platform/audit"
)

// DefaultCapacity is how many events the store keeps before overwriting the
// oldest.
const DefaultCapacity = 4096

// InMemoryStore is a fixed-size ring of audit events. Once full, each Append
// evicts the oldest event, so memory stays flat on long-running servers.
type InMemoryStore struct {
	mu    sync.RWMutex
	ring  []audit.Event
	next  int
	count int
}

type Option func(*InMemoryStore)

// WithCapacity sets the ring size; values below one are ignored.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.ring = make([]audit.Event, n)
		}
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{ring: make([]audit.Event, DefaultCapacity)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = event
	s.next = (s.next + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}
	return nil
}

// ListBySubject returns the retained events for one owner, oldest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject id.OwnerID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	s.each(func(e audit.Event) {
		if e.Subject == subject {
			out = append(out, e)
		}
	})
	return out, nil
}

// ListRecent returns up to limit of the newest events, oldest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		return nil, nil
	}
	skip := max(s.count-limit, 0)
	out := make([]audit.Event, 0, s.count-skip)
	s.each(func(e audit.Event) {
		if skip > 0 {
			skip--
			return
		}
		out = append(out, e)
	})
	return out, nil
}

// each walks retained events oldest first. Callers hold the lock.
func (s *InMemoryStore) each(fn func(audit.Event)) {
	start := (s.next - s.count + len(s.ring)) % len(s.ring)
	for i := range s.count {
		fn(s.ring[(start+i)%len(s.ring)])
	}
}
