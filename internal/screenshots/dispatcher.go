package screenshots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Norgate-AV/swbridge/internal/logger"
)

// ErrDispatcherClosed is the result of a Submit after Close.
var ErrDispatcherClosed = errors.New("screenshot dispatcher is closed")

// DefaultWorkers is the number of concurrent library registrations.
const DefaultWorkers = 2

// DispatcherOptions configures a Dispatcher
type DispatcherOptions struct {
	Workers       int     // Concurrent native registrations (default: DefaultWorkers)
	RatePerSecond float64 // Submission rate limit; <= 0 means unlimited
	Burst         int     // Rate limiter burst (default: 1)

	// OnComplete, if set, is called on the worker goroutine after each job.
	OnComplete func(Completion)
}

// Completion describes a finished job
type Completion struct {
	ID      uuid.UUID
	Request Request
	Handle  Handle
	Err     error
	Elapsed time.Duration
}

// Pending is the future result of a submitted registration
type Pending struct {
	id     uuid.UUID
	done   chan struct{}
	handle Handle
	err    error
}

// ID identifies the job in logs.
func (p *Pending) ID() uuid.UUID {
	return p.id
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the result is available or ctx ends. Giving up on the
// wait does not cancel the native call.
func (p *Pending) Wait(ctx context.Context) (Handle, error) {
	select {
	case <-p.done:
		return p.handle, p.err
	case <-ctx.Done():
		return 0, fmt.Errorf("waiting for screenshot %s: %w", p.id, ctx.Err())
	}
}

// Result returns the outcome without blocking; ok is false while pending.
func (p *Pending) Result() (h Handle, ok bool, err error) {
	select {
	case <-p.done:
		return p.handle, true, p.err
	default:
		return 0, false, nil
	}
}

func (p *Pending) resolve(h Handle, err error) {
	p.handle, p.err = h, err
	close(p.done)
}

// Dispatcher runs AddToLibrary on worker goroutines so that a caller driving
// a cooperative event loop never blocks on disk I/O.
type Dispatcher struct {
	wf         *Workflow
	log        logger.LoggerInterface
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	onComplete func(Completion)
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
}

// NewDispatcher creates a Dispatcher submitting through wf
func NewDispatcher(wf *Workflow, log logger.LoggerInterface, opts DispatcherOptions) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Dispatcher{
		wf:         wf,
		log:        log,
		sem:        semaphore.NewWeighted(int64(opts.Workers)),
		limiter:    rate.NewLimiter(limit, opts.Burst),
		onComplete: opts.OnComplete,
	}
}

// Submit queues req and returns immediately. ctx bounds only the wait for a
// rate token and a free worker; once the native call starts it runs to
// completion.
func (d *Dispatcher) Submit(ctx context.Context, req Request) *Pending {
	p := &Pending{id: uuid.New(), done: make(chan struct{})}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		p.resolve(0, ErrDispatcherClosed)
		return p
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		d.log.Trace("Screenshot job queued", slog.String("job", p.id.String()), slog.String("filename", req.Filename))

		if err := d.limiter.Wait(ctx); err != nil {
			d.finish(p, req, 0, fmt.Errorf("screenshot job %s not started: %w", p.id, err), 0)
			return
		}

		if err := d.sem.Acquire(ctx, 1); err != nil {
			d.finish(p, req, 0, fmt.Errorf("screenshot job %s not started: %w", p.id, err), 0)
			return
		}
		defer d.sem.Release(1)

		start := time.Now()
		h, err := d.wf.AddToLibrary(req)
		d.finish(p, req, h, err, time.Since(start))
	}()

	return p
}

func (d *Dispatcher) finish(p *Pending, req Request, h Handle, err error, elapsed time.Duration) {
	p.resolve(h, err)

	if err != nil {
		d.log.Debug("Screenshot job failed", slog.String("job", p.id.String()), slog.Any("error", err))
	} else {
		d.log.Debug("Screenshot job done",
			slog.String("job", p.id.String()),
			slog.Uint64("handle", uint64(h)),
			slog.String("elapsed", elapsed.String()),
		)
	}

	if d.onComplete != nil {
		d.onComplete(Completion{ID: p.id, Request: req, Handle: h, Err: err, Elapsed: elapsed})
	}
}

// Close rejects new submissions and waits for in-flight jobs until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("screenshot jobs still running: %w", ctx.Err())
	}
}
