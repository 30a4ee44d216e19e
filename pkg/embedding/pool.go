package embedding

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/callin2/agent-memory-sub001/pkg/config"
)

// Request is one async embed-on-write job (spec §9 "Async embedding side
// effects on write -> message-passing: the write path enqueues an
// embed_request into an in-process bounded queue consumed by a worker
// pool; failure to embed never fails the write").
type Request struct {
	Text string
	// Store persists vec on success. Called with a background context
	// (not the original request's), since the enqueueing write has
	// already returned to its caller by the time this runs.
	Store func(ctx context.Context, vec []float32) error
}

// Pool bounds concurrent calls into a Service (default 8, spec §5) the same
// way the teacher's queue.WorkerPool bounds concurrent session processing:
// a fixed set of goroutines draining a channel, started/stopped with a
// stop-channel + WaitGroup, health observable at any time.
type Pool struct {
	svc     Service
	jobs    chan Request
	stopCh  chan struct{}
	wg      sync.WaitGroup
	timeout time.Duration

	mu        sync.Mutex
	inFlight  int
	failures  int
	completed int
}

// NewPool starts a Pool with cfg.WorkerCount goroutines, each bounded to
// cfg.RequestTimeout per embed call.
func NewPool(svc Service, cfg *config.EmbeddingConfig) *Pool {
	p := &Pool{
		svc:     svc,
		jobs:    make(chan Request, cfg.WorkerCount*4),
		stopCh:  make(chan struct{}),
		timeout: cfg.RequestTimeout,
	}
	for i := 0; i < cfg.WorkerCount; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Enqueue submits a best-effort embed job. It never blocks the caller's
// write transaction: if the queue is full the job is dropped and logged,
// matching "failure to embed never fails the write".
func (p *Pool) Enqueue(req Request) {
	select {
	case p.jobs <- req:
	default:
		slog.Warn("embedding pool queue full, dropping embed request")
	}
}

// Stop drains in-flight work and stops all workers.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

// Health reports current queue pressure for the richer internal health
// surface SPEC_FULL.md wires into get_system_health.
type Health struct {
	QueueDepth int
	InFlight   int
	Completed  int
	Failures   int
}

func (p *Pool) Health() Health {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Health{
		QueueDepth: len(p.jobs),
		InFlight:   p.inFlight,
		Completed:  p.completed,
		Failures:   p.failures,
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case req := <-p.jobs:
			p.process(req)
		}
	}
}

func (p *Pool) process(req Request) {
	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	vec, err := p.svc.Embed(ctx, req.Text)
	if err != nil {
		p.mu.Lock()
		p.failures++
		p.mu.Unlock()
		slog.Warn("embedding request failed, write already committed", "error", err)
		return
	}

	if err := req.Store(ctx, vec); err != nil {
		p.mu.Lock()
		p.failures++
		p.mu.Unlock()
		slog.Warn("failed to persist embedding", "error", err)
		return
	}

	p.mu.Lock()
	p.completed++
	p.mu.Unlock()
}
