// Package limiter serializes and throttles access to upstream
// endpoints so the service does not trip abuse detection.
package limiter

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrStopped is returned for tasks submitted after Stop.
var ErrStopped = errors.New("limiter: scheduler stopped")

// Scheduler dispatches tasks in submission order with a minimum
// interval between consecutive starts and a cap on how many run at
// once. A task's failure is delivered only to its submitter and never
// blocks the queue.
type Scheduler struct {
	requests chan *request
	sem      chan struct{}
	pacer    *rate.Limiter
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type request struct {
	ctx   context.Context
	ready chan error // nil when the task may start
}

// New creates a scheduler. minInterval <= 0 disables pacing,
// maxConcurrent < 1 is treated as 1.
func New(minInterval time.Duration, maxConcurrent int) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	pacer := rate.NewLimiter(rate.Inf, 1)
	if minInterval > 0 {
		pacer = rate.NewLimiter(rate.Every(minInterval), 1)
	}

	s := &Scheduler{
		requests: make(chan *request, 256),
		sem:      make(chan struct{}, maxConcurrent),
		pacer:    pacer,
		stop:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.dispatch()
	return s
}

// Stop shuts the dispatcher down. Tasks already running finish
// normally; queued tasks are released with ErrStopped.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// dispatch is the single goroutine that owns dispatch order. It admits
// one request at a time: slot first, then pacing, so start timestamps
// are spaced by at least the configured interval.
func (s *Scheduler) dispatch() {
	defer s.wg.Done()
	for {
		var req *request
		select {
		case <-s.stop:
			s.drain()
			return
		case req = <-s.requests:
		}

		select {
		case s.sem <- struct{}{}:
		case <-req.ctx.Done():
			req.ready <- req.ctx.Err()
			continue
		case <-s.stop:
			req.ready <- ErrStopped
			s.drain()
			return
		}

		if err := s.pacer.Wait(req.ctx); err != nil {
			<-s.sem
			req.ready <- err
			continue
		}
		req.ready <- nil
	}
}

func (s *Scheduler) drain() {
	for {
		select {
		case req := <-s.requests:
			req.ready <- ErrStopped
		default:
			return
		}
	}
}

// Schedule runs task under the scheduler's pacing and concurrency
// rules, blocking until the task has finished.
func (s *Scheduler) Schedule(ctx context.Context, task func(ctx context.Context) error) error {
	req := &request{ctx: ctx, ready: make(chan error, 1)}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stop:
		return ErrStopped
	}

	if err := <-req.ready; err != nil {
		return err
	}
	defer func() { <-s.sem }()
	return task(ctx)
}

// Run schedules a task that produces a value.
func Run[T any](ctx context.Context, s *Scheduler, task func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.Schedule(ctx, func(ctx context.Context) error {
		v, err := task(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
