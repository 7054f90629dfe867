package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ShardedSuite struct {
	suite.Suite
}

func TestShardedSuite(t *testing.T) {
	suite.Run(t, new(ShardedSuite))
}

func (s *ShardedSuite) TestMutualExclusion() {
	l := NewSharded(8)
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "org-a|org-b|subsidiary")
			if !s.NoError(err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	s.Equal(int32(1), maxInside.Load())
}

func (s *ShardedSuite) TestContextCancellation() {
	l := NewSharded(1)
	unlock, err := l.Lock(context.Background(), "k")
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	s.ErrorIs(err, context.DeadlineExceeded)

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "k")
	s.Require().NoError(err)
	again()
}
