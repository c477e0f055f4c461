package dialogue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

// ErrNotFound is returned when a user has no pending intent.
var ErrNotFound = errors.New("dialogue: no pending intent")

// Store holds at most one PendingIntent per user id.
type Store interface {
	Get(ctx context.Context, userID string) (PendingIntent, error)
	Put(ctx context.Context, p PendingIntent) error
	Delete(ctx context.Context, userID string) error
	// Sweep deletes entries last updated before cutoff and returns how many.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	pending map[string]PendingIntent
}

// MemoryStore is a sharded in-process Store. Users hashing to different
// shards never contend on the same lock.
type MemoryStore struct {
	shards [shardCount]*shard
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{pending: make(map[string]PendingIntent)}
	}
	return s
}

func (s *MemoryStore) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return s.shards[h.Sum32()%shardCount]
}

func (s *MemoryStore) Get(_ context.Context, userID string) (PendingIntent, error) {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	p, ok := sh.pending[userID]
	if !ok {
		return PendingIntent{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Put(_ context.Context, p PendingIntent) error {
	sh := s.shardFor(p.UserID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.pending[p.UserID] = p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.pending, userID)
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, p := range sh.pending {
			last := p.UpdatedAt
			if last.IsZero() {
				last = p.CreatedAt
			}
			if last.Before(cutoff) {
				delete(sh.pending, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.pending)
		sh.mu.RUnlock()
	}
	return n, nil
}
