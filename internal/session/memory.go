package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. Expired entries are dropped
// lazily on read and, when a sweep interval is set, by a background janitor.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemoryStore creates a store. A zero sweepInterval disables the janitor.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if sweepInterval > 0 {
		s.wg.Add(1)
		go s.janitor(sweepInterval)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, userID uint64, ttl time.Duration) (*Session, error) {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return &sess, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Session, error) {
	now := s.now()

	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !sess.Expired(now) {
			out = append(out, sess)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	n := len(s.sessions)
	s.sessions = make(map[string]Session)
	s.mu.Unlock()
	return n, nil
}

// Close stops the janitor. The store remains usable.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
}

// MemoryTombstones is an in-process TombstoneSet.
type MemoryTombstones struct {
	mu    sync.RWMutex
	users map[uint64]struct{}
}

func NewMemoryTombstones() *MemoryTombstones {
	return &MemoryTombstones{users: make(map[uint64]struct{})}
}

func (t *MemoryTombstones) Add(_ context.Context, userID uint64) error {
	t.mu.Lock()
	t.users[userID] = struct{}{}
	t.mu.Unlock()
	return nil
}

func (t *MemoryTombstones) Remove(_ context.Context, userID uint64) error {
	t.mu.Lock()
	delete(t.users, userID)
	t.mu.Unlock()
	return nil
}

func (t *MemoryTombstones) Contains(_ context.Context, userID uint64) (bool, error) {
	t.mu.RLock()
	_, ok := t.users[userID]
	t.mu.RUnlock()
	return ok, nil
}

func (t *MemoryTombstones) Clear(_ context.Context) error {
	t.mu.Lock()
	t.users = make(map[uint64]struct{})
	t.mu.Unlock()
	return nil
}
