package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"imgchat/internal/logger"
	"imgchat/internal/models"
)

const DefaultJanitorInterval = 10 * time.Minute

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps transcripts in process. Values are stored encoded so
// callers never share slices with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Transcript, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || !s.now().Before(item.expiresAt) {
		return nil, ErrNotFound
	}
	var t models.Transcript
	if err := json.Unmarshal(item.data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &t, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, t *models.Transcript, ttl time.Duration) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	s.mu.Lock()
	s.items[id] = memoryItem{data: data, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// StartJanitor removes expired transcripts every interval until ctx ends.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	go s.janitorLoop(ctx, interval)
}

func (s *MemoryStore) janitorLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.purgeExpired(); n > 0 {
				logger.Debugf("purged %d expired sessions", n)
			}
		}
	}
}

func (s *MemoryStore) purgeExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, item := range s.items {
		if !now.Before(item.expiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
