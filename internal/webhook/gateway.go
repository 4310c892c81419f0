package webhook

import (
	"context"
	"sync"

	"github.com/gymlink/gymlink-relay/internal/infrastructure/logging"
	"github.com/gymlink/gymlink-relay/internal/relay"
)

// Gateway runs a supervised pool of delivery workers in front of a Client.
//
// Submit never blocks: events are queued on a bounded channel and dropped
// with a log entry when the queue is full. Close drains the queue before
// returning, so events accepted prior to shutdown still get their delivery
// attempts.
type Gateway struct {
	client  *Client
	logger  *logging.Logger
	queue   chan relay.HardwareEvent
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewGateway creates a Gateway and starts its workers.
//
// Parameters:
//   - client: Delivery client shared by all workers
//   - workers: Number of concurrent delivery workers
//   - queueSize: Bounded queue capacity between the relay and the workers
//   - logger: Structured logger
func NewGateway(client *Client, workers, queueSize int, logger *logging.Logger) *Gateway {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	g := &Gateway{
		client:  client,
		logger:  logger,
		queue:   make(chan relay.HardwareEvent, queueSize),
		workers: workers,
	}

	g.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go g.worker()
	}

	return g
}

// Submit queues an event for delivery. It never blocks the caller: when the
// queue is full or the gateway is closed the event is dropped and the drop
// logged.
func (g *Gateway) Submit(ev relay.HardwareEvent) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		g.logger.Warn("event dropped, persistence gateway closed",
			"gym_id", ev.GymID, "event_type", ev.Type)
		return
	}

	select {
	case g.queue <- ev:
	default:
		g.logger.Warn("event dropped, persistence queue full",
			"gym_id", ev.GymID, "event_type", ev.Type, "queue_size", cap(g.queue))
	}
}

// Close stops accepting events and waits for the workers to drain the
// queue. Safe to call more than once.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.queue)
	g.mu.Unlock()

	g.wg.Wait()
	g.logger.Info("persistence gateway drained")
}

// QueueDepth returns the number of events currently waiting for a worker.
func (g *Gateway) QueueDepth() int {
	return len(g.queue)
}

// worker delivers queued events until the queue is closed and empty.
// Exhausted deliveries are logged here and swallowed; a lost event must
// never take the relay down.
func (g *Gateway) worker() {
	defer g.wg.Done()

	for ev := range g.queue {
		if err := g.client.LogEvent(context.Background(), ev); err != nil {
			g.logger.Error("event persistence abandoned",
				"gym_id", ev.GymID, "event_type", ev.Type,
				"user_id", ev.UserID, "error", err)
		}
	}
}
