package cardstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sotc/backend/internal/domain"
)

// cardEntry holds a serialized card with its expiration
type cardEntry struct {
	Data       []byte
	Expiration time.Time
}

// MemoryStore is a thread-safe in-memory card store with TTL support
type MemoryStore struct {
	data  map[string]cardEntry
	ttl   time.Duration
	mutex sync.RWMutex
	done  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates a new in-memory card store. A zero ttl keeps cards forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]cardEntry),
		ttl:  ttl,
		done: make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired cards every 10 minutes
	go store.cleanupExpired(10 * time.Minute)

	return store
}

// Get retrieves a card from the store
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.SavedCard, error) {
	s.mutex.RLock()
	entry, exists := s.data[id]
	s.mutex.RUnlock()

	if !exists || s.expired(entry, time.Now()) {
		return nil, domain.ErrCardNotFound
	}

	var card domain.SavedCard
	if err := json.Unmarshal(entry.Data, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Save stores a card under its id
func (s *MemoryStore) Save(ctx context.Context, card *domain.SavedCard) error {
	// Serialize to JSON so callers cannot mutate stored cards
	data, err := json.Marshal(card)
	if err != nil {
		return err
	}

	entry := cardEntry{Data: data}
	if s.ttl > 0 {
		entry.Expiration = time.Now().Add(s.ttl)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data[card.ID] = entry

	return nil
}

// Exists checks if a card exists and is not expired
func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.data[id]
	if !exists {
		return false, nil
	}
	return !s.expired(entry, time.Now()), nil
}

// Size returns the current number of stored cards (for debugging/monitoring)
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// purgeExpired removes expired cards and returns how many were removed
func (s *MemoryStore) purgeExpired(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for id, entry := range s.data {
		if s.expired(entry, now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// cleanupExpired removes expired cards periodically until Close
func (s *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purgeExpired(time.Now())
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) expired(entry cardEntry, now time.Time) bool {
	return !entry.Expiration.IsZero() && now.After(entry.Expiration)
}
