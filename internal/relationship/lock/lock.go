// Package lock serializes edge creation per (primary, related, type) tuple.
//
// The store's unique constraint is authoritative; these locks keep concurrent
// creators from racing past the registry check and turning a clean conflict into
// a storage error.
package lock

import (
	"context"
	"hash/fnv"
	"sync"
)

// Unlock releases a held lock. It is safe to call once.
type Unlock func()

// Sharded is an in-process keyed mutex. Keys hash onto a fixed set of shards,
// so unrelated keys may share a shard but a key never maps to two.
type Sharded struct {
	shards []sync.Mutex
}

const defaultShards = 64

// NewSharded creates a keyed mutex with n shards (64 when n <= 0).
func NewSharded(n int) *Sharded {
	if n <= 0 {
		n = defaultShards
	}
	return &Sharded{shards: make([]sync.Mutex, n)}
}

// Lock blocks until the shard for key is held or ctx is done.
func (s *Sharded) Lock(ctx context.Context, key string) (Unlock, error) {
	mu := &s.shards[s.shard(key)]
	acquired := make(chan struct{})
	go func() {
		mu.Lock()
		close(acquired)
	}()
	select {
	case <-acquired:
		var once sync.Once
		return func() { once.Do(mu.Unlock) }, nil
	case <-ctx.Done():
		// The goroutine still takes the lock; hand it back once it does.
		go func() {
			<-acquired
			mu.Unlock()
		}()
		return nil, ctx.Err()
	}
}

func (s *Sharded) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.shards)))
}
