package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

// Sink receives serialized change events off the request path. The local
// Registry and the Redis bus both implement it.
type Sink interface {
	Deliver(ctx context.Context, msg []byte) error
}

const (
	DefaultQueueSize = 1024
	DefaultWorkers   = 4
)

type DispatchStats struct {
	Enqueued  uint64
	Delivered uint64
	Dropped   uint64
	Failed    uint64
}

// Dispatcher is a bounded queue drained by a fixed set of workers. Enqueue
// never blocks: when the queue is full the message is dropped.
type Dispatcher struct {
	log     *logger.Logger
	sink    Sink
	queue   chan []byte
	workers int

	pending   atomic.Int64
	enqueued  atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDispatcher(log *logger.Logger, sink Sink, queueSize, workers int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Dispatcher{
		log:     log.With("component", "Dispatcher"),
		sink:    sink,
		queue:   make(chan []byte, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Subsequent calls are no-ops.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(ctx, i)
	}
	d.log.Info("dispatcher started", "workers", d.workers, "queue_size", cap(d.queue))
}

// Enqueue hands msg to the workers and reports whether it was accepted.
func (d *Dispatcher) Enqueue(msg []byte) bool {
	// the read lock spans the send so Stop cannot flush and exit in between
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.dropped.Add(1)
		return false
	}

	d.pending.Add(1)
	select {
	case d.queue <- msg:
		d.enqueued.Add(1)
		return true
	default:
		d.pending.Add(-1)
		d.dropped.Add(1)
		d.log.Warn("dispatch queue full; dropping event", "queue_size", cap(d.queue))
		return false
	}
}

func (d *Dispatcher) run(ctx context.Context, worker int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.flush(worker)
			return
		case msg := <-d.queue:
			d.deliver(ctx, worker, msg)
		}
	}
}

// flush delivers whatever is still queued when the dispatcher stops.
func (d *Dispatcher) flush(worker int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case msg := <-d.queue:
			d.deliver(ctx, worker, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, msg []byte) {
	defer d.pending.Add(-1)
	if err := d.sink.Deliver(ctx, msg); err != nil {
		d.failed.Add(1)
		d.log.Warn("event delivery failed", "worker", worker, "error", err)
		return
	}
	d.delivered.Add(1)
}

// Drain waits until every accepted message has been delivered or ctx ends.
func (d *Dispatcher) Drain(ctx context.Context) bool {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if d.pending.Load() <= 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Stop refuses new messages, delivers what is queued and waits for workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	cancel := d.cancel
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
	d.log.Info("dispatcher stopped", "delivered", d.delivered.Load(), "dropped", d.dropped.Load())
}

func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Enqueued:  d.enqueued.Load(),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
