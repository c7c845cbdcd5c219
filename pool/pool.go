package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkerPool is a generic, bounded set of concurrent workers that apply a
// ProcessFunc to submitted tasks. It offers two consumption modes:
//
//   - MapOrdered: fail-fast bulk processing with results in input order
//   - Completions: per-task results streamed in completion order, leaving
//     failure policy to the consumer
//
// All workers are torn down before either call returns, on every exit path.
//
// Type parameters:
//   - T: The input task type
//   - R: The result type
type WorkerPool[T any, R any] struct {
	workerCount int
	taskBuffer  int
	cfg         poolConfig
}

// New creates a worker pool with the given options.
// Default configuration: workers = GOMAXPROCS, buffer = worker count.
func New[T any, R any](opts ...Option) *WorkerPool[T, R] {
	cfg := poolConfig{
		workerCount: runtime.GOMAXPROCS(0),
		chunkSize:   1,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.taskBuffer == 0 {
		cfg.taskBuffer = cfg.workerCount
	}

	return &WorkerPool[T, R]{
		workerCount: cfg.workerCount,
		taskBuffer:  cfg.taskBuffer,
		cfg:         cfg,
	}
}

// MapOrdered applies fn to every task and returns the results in input order.
// The first failing task cancels all remaining work and fails the whole call
// with a TaskError carrying the failed task's index; no partial results are
// returned.
func (wp *WorkerPool[T, R]) MapOrdered(
	ctx context.Context,
	tasks []T,
	fn ProcessFunc[T, R],
) ([]R, error) {
	if len(tasks) == 0 {
		return []R{}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	chunkChan := make(chan []indexedTask[T], wp.taskBuffer)
	results := make([]R, len(tasks))

	numWorkers := min(wp.workerCount, len(tasks))
	debugLog("MapOrdered: starting %d workers for %d tasks", numWorkers, len(tasks))
	for range numWorkers {
		g.Go(func() error {
			for {
				select {
				case chunk, ok := <-chunkChan:
					if !ok {
						return nil
					}
					for _, t := range chunk {
						value, err := wp.invoke(gctx, t.task, fn)
						if err != nil {
							if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
								return err
							}
							return &TaskError{Index: t.index, Cause: err}
						}
						// Each worker owns a disjoint set of indices, so
						// writing the slot directly is race-free.
						results[t.index] = value
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	g.Go(func() error {
		return wp.dispatch(gctx, tasks, chunkChan)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Completions applies fn to every task and streams one Result per task in
// completion order, not submission order. The channel is closed once every
// dispatched task has reached a terminal state. Task failures are carried in
// Result.Err and never stop the pool; cancelling ctx does, in which case
// results for tasks never started simply do not materialize.
func (wp *WorkerPool[T, R]) Completions(
	ctx context.Context,
	tasks []T,
	fn ProcessFunc[T, R],
) <-chan Result[R] {
	out := make(chan Result[R], len(tasks))
	if len(tasks) == 0 {
		close(out)
		return out
	}

	go func() {
		defer close(out)

		g, gctx := errgroup.WithContext(ctx)
		chunkChan := make(chan []indexedTask[T], wp.taskBuffer)

		numWorkers := min(wp.workerCount, len(tasks))
		for range numWorkers {
			g.Go(func() error {
				for {
					select {
					case chunk, ok := <-chunkChan:
						if !ok {
							return nil
						}
						for _, t := range chunk {
							if gctx.Err() != nil {
								return gctx.Err()
							}
							value, err := wp.invoke(gctx, t.task, fn)
							if err != nil && errors.Is(err, context.Canceled) {
								return err
							}
							// The channel is buffered for the full task count,
							// so this send never blocks.
							out <- Result[R]{Value: value, Err: err, Index: t.index}
						}
					case <-gctx.Done():
						return gctx.Err()
					}
				}
			})
		}

		g.Go(func() error {
			return wp.dispatch(gctx, tasks, chunkChan)
		})

		_ = g.Wait()
	}()

	return out
}

// dispatch feeds tasks to workers in chunks of the configured size and closes
// the channel when done or cancelled.
func (wp *WorkerPool[T, R]) dispatch(
	ctx context.Context,
	tasks []T,
	chunkChan chan<- []indexedTask[T],
) error {
	defer close(chunkChan)

	size := max(wp.cfg.chunkSize, 1)
	debugLog("dispatching %d tasks in chunks of %d", len(tasks), size)
	for start := 0; start < len(tasks); start += size {
		end := min(start+size, len(tasks))
		chunk := make([]indexedTask[T], 0, end-start)
		for i := start; i < end; i++ {
			chunk = append(chunk, indexedTask[T]{index: i, task: tasks[i]})
		}

		select {
		case chunkChan <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// invoke runs fn on a single task, applying rate limiting, isolation copying,
// and panic recovery.
func (wp *WorkerPool[T, R]) invoke(ctx context.Context, task T, fn ProcessFunc[T, R]) (R, error) {
	var zero R

	if wp.cfg.rateLimiter != nil {
		if err := wp.cfg.rateLimiter.Wait(ctx); err != nil {
			return zero, err
		}
	}

	if !wp.cfg.isolated {
		return callWithRecovery(ctx, task, fn)
	}

	in, err := roundTrip(task)
	if err != nil {
		return zero, &TransferError{Direction: "input", Cause: err}
	}

	value, err := callWithRecovery(ctx, in, fn)
	if err != nil {
		return zero, err
	}

	out, err := roundTrip(value)
	if err != nil {
		return zero, &TransferError{Direction: "output", Cause: err}
	}
	return out, nil
}

// callWithRecovery executes a task with panic recovery.
// If a panic occurs, it's converted to an error to prevent crashing the worker.
func callWithRecovery[T, R any](
	ctx context.Context,
	task T,
	fn ProcessFunc[T, R],
) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("worker panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	return fn(ctx, task)
}
