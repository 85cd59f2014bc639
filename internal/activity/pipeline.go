package activity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultQueueSize is the per-producer queue depth used when none is
// configured.
const DefaultQueueSize = 16

// Pipeline fans independent producers into the feed through one serialized
// consumer. Each producer gets its own bounded queue; if a producer
// outpaces the consumer the queue drops its oldest pending entry
// (drop-oldest, not drop-newest - the feed already evicts the lowest
// sequence under capacity pressure, and staleness beats unbounded
// memory growth).
//
// Producers must be registered before Run is called.
type Pipeline struct {
	feed      *Feed
	queueSize int

	mu       sync.Mutex
	queues   map[string]chan Entry
	observer func(Entry)
	running  bool

	dropped atomic.Int64
}

// NewPipeline creates a pipeline feeding the given feed.
// Non-positive queue sizes fall back to DefaultQueueSize.
func NewPipeline(feed *Feed, queueSize int) *Pipeline {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Pipeline{
		feed:      feed,
		queueSize: queueSize,
		queues:    make(map[string]chan Entry),
	}
}

// Register creates the bounded queue for a producer.
// Registering the same producer twice is a no-op. Returns an error once
// the pipeline is running.
func (p *Pipeline) Register(producerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("cannot register producer %q: pipeline already running", producerID)
	}
	if _, ok := p.queues[producerID]; !ok {
		p.queues[producerID] = make(chan Entry, p.queueSize)
	}
	return nil
}

// SetObserver registers a callback invoked by the consumer after each
// entry it delivers to the feed. Dropped entries are never observed.
// Returns an error once the pipeline is running.
func (p *Pipeline) SetObserver(fn func(Entry)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("cannot set observer: pipeline already running")
	}
	p.observer = fn
	return nil
}

// Publish enqueues an entry from a producer without blocking.
// When the producer's queue is full the oldest pending entry is dropped to
// make room. Entries from unregistered producers are dropped and counted.
func (p *Pipeline) Publish(producerID string, e Entry) {
	p.mu.Lock()
	q, ok := p.queues[producerID]
	p.mu.Unlock()
	if !ok {
		p.dropped.Add(1)
		return
	}

	select {
	case q <- e:
		return
	default:
	}

	// Queue full: evict the oldest pending entry, then retry once.
	select {
	case <-q:
		p.dropped.Add(1)
	default:
	}
	select {
	case q <- e:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns the total number of entries dropped by backpressure.
func (p *Pipeline) Dropped() int64 {
	return p.dropped.Load()
}

// Run starts one forwarder per registered producer and the single consumer,
// then blocks until the context is cancelled. All pending entries visible
// at cancellation may or may not reach the feed; the feed is a lossy view
// by design and completeness comes from ledger replay.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pipeline already running")
	}
	p.running = true
	queues := make([]chan Entry, 0, len(p.queues))
	for _, q := range p.queues {
		queues = append(queues, q)
	}
	observer := p.observer
	p.mu.Unlock()

	merged := make(chan Entry)

	g, gctx := errgroup.WithContext(ctx)

	for _, q := range queues {
		queue := q
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case e := <-queue:
					select {
					case merged <- e:
					case <-gctx.Done():
						return nil
					}
				}
			}
		})
	}

	// The single serialized consumer.
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case e := <-merged:
				p.feed.Insert(e)
				if observer != nil {
					observer(e)
				}
			}
		}
	})

	err := g.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return err
}
