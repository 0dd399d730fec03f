package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/puzpuzpuz/xsync/v3"
)

const DefaultGrace = 100 * time.Millisecond

// Task produces the results of one named unit of work.
type Task[T any] func(ctx context.Context) ([]T, error)

// Executor runs tasks concurrently under a shared deadline. It never fails:
// a task that errors, panics or runs out of time contributes an empty slice.
type Executor[T any] struct {
	grace       time.Duration
	taskTimeout time.Duration
}

type Option func(*options)

type options struct {
	grace       time.Duration
	taskTimeout time.Duration
}

// WithGrace sets how long to wait after the deadline for tasks that are about
// to finish.
func WithGrace(grace time.Duration) Option {
	return func(o *options) {
		if grace >= 0 {
			o.grace = grace
		}
	}
}

// WithTaskTimeout bounds a single task. Zero means tasks are only bounded by
// their own context handling.
func WithTaskTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.taskTimeout = timeout
	}
}

func New[T any](opts ...Option) *Executor[T] {
	o := &options{
		grace: DefaultGrace,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Executor[T]{
		grace:       o.grace,
		taskTimeout: o.taskTimeout,
	}
}

// RunAll starts every task and returns once they all finished or the
// deadline plus the grace interval passed, whichever comes first. Tasks still
// running at that point are not cancelled; they finish in the background and
// are reported here as empty.
//
// Every call gets its own pool sized to its tasks, so detached stragglers of
// earlier calls never delay the tasks of a new one.
func (e *Executor[T]) RunAll(ctx context.Context, tasks map[string]Task[T], deadline time.Duration) map[string][]T {
	if len(tasks) == 0 {
		return map[string][]T{}
	}

	results := xsync.NewMapOf[string, []T]()
	taskCtx := context.WithoutCancel(ctx)

	pool := pond.NewPool(len(tasks))
	for name, task := range tasks {
		pool.Submit(func() {
			results.Store(name, e.run(taskCtx, name, task))
		})
	}
	done := pool.Stop().Done()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		e.settle(done, fmt.Sprintf("deadline of %s reached", deadline))
	case <-ctx.Done():
		e.settle(done, fmt.Sprintf("request ended: %v", ctx.Err()))
	}

	collected := make(map[string][]T, len(tasks))
	for name := range tasks {
		value, ok := results.Load(name)
		if !ok {
			log.Warnf("Task %s did not finish in time, leaving it out of the response", name)
			value = []T{}
		}
		collected[name] = value
	}

	return collected
}

func (e *Executor[T]) settle(done <-chan struct{}, reason string) {
	log.Warnf("Fan-out %s, waiting %s for tasks to settle", reason, e.grace)
	grace := time.NewTimer(e.grace)
	defer grace.Stop()

	select {
	case <-done:
	case <-grace.C:
	}
}

type outcome[T any] struct {
	values []T
	err    error
}

func (e *Executor[T]) run(ctx context.Context, name string, task Task[T]) []T {
	start := time.Now()

	if e.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.taskTimeout)
		defer cancel()
	}

	outCh := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outCh <- outcome[T]{err: fmt.Errorf("panic: %v", r)}
			}
		}()

		values, err := task(ctx)
		outCh <- outcome[T]{values: values, err: err}
	}()

	var out outcome[T]
	select {
	case out = <-outCh:
	case <-ctx.Done():
		out.err = ctx.Err()
	}

	elapsed := time.Since(start)
	if out.err != nil {
		log.Errorf("Task %s failed after %s: %v", name, elapsed, out.err)
		return []T{}
	}

	log.Infof("Task %s completed in %s with %d results", name, elapsed, len(out.values))
	if out.values == nil {
		return []T{}
	}
	return out.values
}
