package audio

import (
	"context"
	"sync"
	"time"
)

// Store keeps generated clips by id.
type Store interface {
	// Put stores data under id, replacing any previous clip.
	Put(ctx context.Context, id string, data []byte) error
	// Get returns the clip or ErrClipNotFound.
	Get(ctx context.Context, id string) ([]byte, error)
	// Name labels the store in logs and metrics.
	Name() string
}

type memoryClip struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store with per-clip expiry. Expired clips
// are dropped lazily on Get and swept on Put.
type MemoryStore struct {
	mu    sync.Mutex
	clips map[string]memoryClip
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a MemoryStore. A non-positive ttl keeps clips forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		clips: make(map[string]memoryClip),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	clip := memoryClip{data: append([]byte(nil), data...)}
	if s.ttl > 0 {
		clip.expiresAt = now.Add(s.ttl)
	}
	s.clips[id] = clip
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clip, ok := s.clips[id]
	if !ok {
		return nil, ErrClipNotFound
	}
	if s.expired(clip, s.now()) {
		delete(s.clips, id)
		return nil, ErrClipNotFound
	}
	return append([]byte(nil), clip.data...), nil
}

// Len reports how many clips are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for id, clip := range s.clips {
		if s.expired(clip, now) {
			delete(s.clips, id)
		}
	}
}

func (s *MemoryStore) expired(clip memoryClip, now time.Time) bool {
	return !clip.expiresAt.IsZero() && !now.Before(clip.expiresAt)
}
