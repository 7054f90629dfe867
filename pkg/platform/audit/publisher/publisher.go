// Package publisher delivers relationship history events to an audit sink without
// blocking the mutation that produced them.
//
// Emit stamps the event and places it in a bounded ring buffer; when the buffer is
// full the oldest event is evicted and counted. Run drains the buffer in batches,
// retrying each append with exponential backoff behind a circuit breaker. An event
// that exhausts its attempts is logged and abandoned. While the breaker is open,
// undelivered events stay buffered until the cooldown admits a trial call.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "linkage/pkg/domain"
	audit "linkage/pkg/platform/audit"
	"linkage/pkg/platform/circuit"
	"linkage/pkg/requestcontext"
)

var errCircuitOpen = errors.New("history sink circuit open")

const drainTimeout = 5 * time.Second

// Publisher is safe for concurrent use. Emit may be called before Run starts.
type Publisher struct {
	sink    audit.Sink
	buf     *ringBuffer
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics

	maxAttempts   int
	backoff       time.Duration
	batchSize     int
	flushInterval time.Duration

	notify    chan struct{}
	deliverMu sync.Mutex
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBufferSize bounds the number of undelivered events held in memory.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		p.buf = newRingBuffer(n)
	}
}

// WithMaxAttempts sets how many times a single event is offered to the sink.
func WithMaxAttempts(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithRetryBackoff sets the base delay between attempts; it doubles per attempt.
func WithRetryBackoff(d time.Duration) Option {
	return func(p *Publisher) {
		if d >= 0 {
			p.backoff = d
		}
	}
}

// WithBreaker replaces the default sink circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

// WithFlushInterval sets how often Run polls the buffer without a notification.
func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// New creates a publisher delivering to sink.
func New(sink audit.Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:          sink,
		buf:           newRingBuffer(10000),
		breaker:       circuit.New("history_sink", circuit.WithFailureThreshold(5), circuit.WithCooldown(10*time.Second)),
		logger:        slog.Default(),
		maxAttempts:   5,
		backoff:       200 * time.Millisecond,
		batchSize:     100,
		flushInterval: 250 * time.Millisecond,
		notify:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps the event and queues it for delivery. It never blocks on the sink
// and never fails the caller.
func (p *Publisher) Emit(ctx context.Context, event audit.HistoryEvent) {
	if event.ID.IsNil() {
		event.ID = id.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.ActorID.IsNil() {
		event.ActorID = requestcontext.ActorID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if evicted := p.buf.enqueue(event); evicted != nil {
		p.metrics.AddDropped(1)
		p.logger.WarnContext(ctx, "history buffer full, dropped oldest event",
			"event_id", evicted.ID,
			"edge_id", evicted.EdgeID,
			"change_type", evicted.ChangeType,
		)
	}
	p.metrics.IncEmitted(string(event.ChangeType))
	p.metrics.SetBufferDepth(p.buf.len())

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Run drains the buffer until ctx is cancelled, then makes one bounded final
// drain so a graceful shutdown does not lose queued events.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			defer cancel()
			if err := p.drain(drainCtx); err != nil {
				p.logger.WarnContext(ctx, "history buffer not fully drained on shutdown",
					"pending", p.buf.len(),
					"error", err,
				)
			}
			return nil
		case <-p.notify:
		case <-ticker.C:
		}
		_ = p.drain(ctx)
	}
}

// Flush delivers everything currently buffered on the caller's goroutine.
// It returns an error only when events remain buffered (open circuit or ctx).
func (p *Publisher) Flush(ctx context.Context) error {
	return p.drain(ctx)
}

// Pending returns the number of events waiting for delivery.
func (p *Publisher) Pending() int {
	return p.buf.len()
}

// Dropped returns the number of events evicted from a full buffer.
func (p *Publisher) Dropped() int64 {
	return p.buf.droppedTotal()
}

func (p *Publisher) drain(ctx context.Context) error {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	defer func() { p.metrics.SetBufferDepth(p.buf.len()) }()

	for {
		batch := p.buf.dequeueBatch(p.batchSize)
		if len(batch) == 0 {
			return nil
		}
		for i := range batch {
			if err := p.deliver(ctx, batch[i]); err != nil {
				p.metrics.AddDropped(p.buf.requeueFront(batch[i:]))
				return err
			}
		}
	}
}

// deliver offers one event to the sink. A nil return means the event is done
// with, delivered or abandoned; an error means it must stay buffered.
func (p *Publisher) deliver(ctx context.Context, event audit.HistoryEvent) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if !p.breaker.Allow() {
			return errCircuitOpen
		}

		lastErr = p.sink.Append(ctx, event)
		if lastErr == nil {
			if _, change := p.breaker.RecordSuccess(); change.Closed {
				p.metrics.SetBreakerState(false)
				p.logger.InfoContext(ctx, "history sink circuit closed", "breaker", p.breaker.Name())
			}
			p.metrics.IncDelivered()
			return nil
		}

		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.metrics.SetBreakerState(true)
			p.logger.WarnContext(ctx, "history sink circuit opened",
				"breaker", p.breaker.Name(),
				"error", lastErr,
			)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == p.maxAttempts {
			break
		}
		p.metrics.IncRetries()
		if err := sleep(ctx, p.backoff<<(attempt-1)); err != nil {
			return err
		}
	}

	p.metrics.IncFailed()
	p.logger.ErrorContext(ctx, "history event abandoned after retries",
		"event_id", event.ID,
		"edge_id", event.EdgeID,
		"change_type", event.ChangeType,
		"attempts", p.maxAttempts,
		"error", lastErr,
	)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
