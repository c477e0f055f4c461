package assistant

import (
	"hash/fnv"
	"sync"
)

const lockShards = 32

// keyedMutex serializes work per key and grants each key to waiters in the
// order they called Lock. An entry lives while the key is held.
type keyedMutex struct {
	shards [lockShards]lockShard
}

type lockShard struct {
	mu    sync.Mutex
	locks map[string]*fifoLock
}

// fifoLock is a held key and its queue of waiters. Unlock hands the key
// straight to the oldest waiter.
type fifoLock struct {
	waiters []chan struct{}
}

func (k *keyedMutex) shard(key string) *lockShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &k.shards[h.Sum32()%lockShards]
}

// Lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	s := k.shard(key)
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*fifoLock)
	}
	l, held := s.locks[key]
	if !held {
		l = &fifoLock{}
		s.locks[key] = l
		s.mu.Unlock()
	} else {
		turn := make(chan struct{})
		l.waiters = append(l.waiters, turn)
		s.mu.Unlock()
		<-turn
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(l.waiters) == 0 {
			delete(s.locks, key)
			return
		}
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		close(next)
	}
}

// size returns the number of live entries.
func (k *keyedMutex) size() int {
	n := 0
	for i := range k.shards {
		s := &k.shards[i]
		s.mu.Lock()
		n += len(s.locks)
		s.mu.Unlock()
	}
	return n
}
