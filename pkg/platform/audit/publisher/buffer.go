package publisher

import (
	"sync"

	audit "linkage/pkg/platform/audit"
)

// ringBuffer is a bounded, thread-safe FIFO of history events.
// When full, the oldest event is dropped to make room for the new one.
type ringBuffer struct {
	mu       sync.Mutex
	events   []audit.HistoryEvent
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int

	dropped int64
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = 10000
	}
	return &ringBuffer{
		events:   make([]audit.HistoryEvent, capacity),
		capacity: capacity,
	}
}

// enqueue adds an event and reports whether an older event was evicted.
func (b *ringBuffer) enqueue(event audit.HistoryEvent) (evicted *audit.HistoryEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.capacity {
		old := b.events[b.tail]
		b.events[b.tail] = audit.HistoryEvent{}
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		evicted = &old
	}

	b.events[b.head] = event
	b.head = (b.head + 1) % b.capacity
	b.count++
	return evicted
}

// dequeueBatch removes up to n events, oldest first.
func (b *ringBuffer) dequeueBatch(n int) []audit.HistoryEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	result := make([]audit.HistoryEvent, n)
	for i := 0; i < n; i++ {
		result[i] = b.events[b.tail]
		b.events[b.tail] = audit.HistoryEvent{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return result
}

// requeueFront puts undelivered events back ahead of anything enqueued since.
// Events that no longer fit are dropped, oldest first.
func (b *ringBuffer) requeueFront(events []audit.HistoryEvent) (dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(events) - 1; i >= 0; i-- {
		if b.count >= b.capacity {
			dropped += i + 1
			b.dropped += int64(i + 1)
			return dropped
		}
		b.tail = (b.tail - 1 + b.capacity) % b.capacity
		b.events[b.tail] = events[i]
		b.count++
	}
	return dropped
}

func (b *ringBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *ringBuffer) droppedTotal() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
