package parlane

import (
	"context"
	"sort"
	"time"

	"github.com/utkarsh5026/parlane/pool"
)

// executor binds one execution call's resolved configuration: the backend
// picked by the selector, the worker count from the sizing formulas, and the
// dispatch chunk size for isolated workers.
type executor struct {
	cfg     *config
	kind    Backend
	workers int
	chunk   int
}

func newExecutor(cfg *config, itemCount int) *executor {
	caps := defaultProbe.probe()
	kind := selectBackend(cfg.backend, caps)
	workers := cfg.resolveWorkers(kind, caps.cpuCount, itemCount)

	chunk := 1
	if kind == BackendProcess {
		chunk = cfg.resolveChunkSize(itemCount, workers)
	}

	return &executor{
		cfg:     cfg,
		kind:    kind,
		workers: workers,
		chunk:   chunk,
	}
}

// run applies fn to every item under the raise or skip strategy, returning
// results in input order. Collect is served by runCollect because the return
// type differs.
func run[T, R any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) (R, error),
	cfg *config,
) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	e := newExecutor(cfg, len(items))
	wp := newPool[T, R](e)
	wrapped := withTimeout(fn, cfg.timeout)

	// Fast path: no progress and fail-fast semantics map directly onto the
	// pool's ordered bulk primitive, with no per-task bookkeeping.
	if cfg.onError == StrategyRaise && cfg.reporter == nil {
		return wp.MapOrdered(ctx, items, wrapped)
	}

	gathered, err := gather(ctx, wp, items, wrapped, cfg)
	if err != nil {
		return nil, err
	}

	out := make([]R, 0, len(gathered))
	for _, res := range gathered {
		if res.Err != nil {
			// Strategy is skip here: raise already failed inside gather.
			continue
		}
		out = append(out, res.Value)
	}
	return out, nil
}

// runCollect applies fn to every item and wraps each outcome, success or
// failure, into a Result at its original position. Output length always
// equals input length.
func runCollect[T, R any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) (R, error),
	cfg *config,
) ([]Result[R], error) {
	if len(items) == 0 {
		return []Result[R]{}, nil
	}

	e := newExecutor(cfg, len(items))
	wp := newPool[T, R](e)
	wrapped := withTimeout(fn, cfg.timeout)

	gathered, err := gather(ctx, wp, items, wrapped, cfg)
	if err != nil {
		return nil, err
	}

	out := make([]Result[R], 0, len(gathered))
	for _, res := range gathered {
		if res.Err != nil {
			out = append(out, Err[R](res.Err))
		} else {
			out = append(out, Ok(res.Value))
		}
	}
	return out, nil
}

// newPool builds the worker pool for a resolved executor.
func newPool[T, R any](e *executor) *pool.WorkerPool[T, R] {
	opts := []pool.Option{
		pool.WithWorkerCount(e.workers),
	}
	if e.kind == BackendProcess {
		opts = append(opts, pool.WithIsolation(e.chunk))
	}
	if e.cfg.ratePerSec > 0 {
		opts = append(opts, pool.WithRateLimit(e.cfg.ratePerSec, e.cfg.rateBurst))
	}
	return pool.New[T, R](opts...)
}

// gather consumes per-task completions, advancing the progress reporter once
// per completion (completion order), and returns the buffered results
// re-sorted into input order. Under the raise strategy the first failure
// cancels remaining work, the pool is drained so every in-flight task reaches
// a terminal state, and the call fails with a TaskError carrying the original
// cause; already-completed successes are discarded.
func gather[T, R any](
	ctx context.Context,
	wp *pool.WorkerPool[T, R],
	items []T,
	fn pool.ProcessFunc[T, R],
	cfg *config,
) ([]pool.Result[R], error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.reporter != nil {
		cfg.reporter.Start(len(items), cfg.label)
		defer cfg.reporter.Finish()
	}

	buffered := make([]pool.Result[R], 0, len(items))
	var firstErr error

	for res := range wp.Completions(runCtx, items, fn) {
		if cfg.reporter != nil {
			cfg.reporter.Advance(1)
		}

		if res.Err != nil && cfg.onError == StrategyRaise {
			if firstErr == nil {
				firstErr = &TaskError{Index: res.Index, Cause: res.Err}
				cancel()
			}
			continue
		}
		buffered = append(buffered, res)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(buffered, func(i, j int) bool {
		return buffered[i].Index < buffered[j].Index
	})
	return buffered, nil
}

// withTimeout bounds each task invocation by a wall-clock limit. The user
// function runs in its own goroutine so a function that ignores its context
// cannot hold up the call; on expiry the task fails with a TimeoutError and
// the abandoned invocation's eventual result is discarded.
func withTimeout[T, R any](
	fn func(context.Context, T) (R, error),
	limit time.Duration,
) pool.ProcessFunc[T, R] {
	if limit <= 0 {
		return pool.ProcessFunc[T, R](fn)
	}

	return func(ctx context.Context, task T) (R, error) {
		tctx, cancel := context.WithTimeout(ctx, limit)
		defer cancel()

		type outcome struct {
			value R
			err   error
		}
		done := make(chan outcome, 1)

		go func() {
			value, err := fn(tctx, task)
			done <- outcome{value: value, err: err}
		}()

		select {
		case o := <-done:
			return o.value, o.err
		case <-tctx.Done():
			var zero R
			if ctx.Err() != nil {
				// The caller's context fired, not the per-task limit.
				return zero, ctx.Err()
			}
			return zero, &TimeoutError{Limit: limit}
		}
	}
}
