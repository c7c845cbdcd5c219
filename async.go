package parlane

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// AsyncMap is the cooperative sibling of Map for concurrent I/O: instead of a
// worker pool it launches one goroutine per item inside a structured group
// and bounds how many run fn simultaneously with a counting admission gate of
// min(32, workers or item count) permits. Results come back in input order;
// error strategies and progress semantics match Map.
//
// Under StrategyRaise the first failure cancels the group context; the call
// does not return until every outstanding invocation has reached a terminal
// state, so no background work survives the call.
//
// Backend options do not apply: BackendProcess is a ConfigError, anything
// else is ignored.
func AsyncMap[T any, R any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) (R, error),
	opts ...Option,
) ([]R, error) {
	cfg, err := newAsyncConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.onError == StrategyCollect {
		return nil, &ConfigError{Reason: "collect strategy returns wrapped results; use AsyncMapCollect"}
	}

	if len(items) == 0 {
		return []R{}, nil
	}

	gathered, err := asyncGather(ctx, items, fn, cfg)
	if err != nil {
		return nil, err
	}

	out := make([]R, 0, len(items))
	for _, res := range gathered {
		if res.err != nil {
			// Strategy is skip: raise already failed inside asyncGather.
			continue
		}
		out = append(out, res.value)
	}
	return out, nil
}

// AsyncMapCollect is MapCollect under the admission-gate model: one Result
// per input, length and order preserved, failures never abort the call.
func AsyncMapCollect[T any, R any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) (R, error),
	opts ...Option,
) ([]Result[R], error) {
	cfg, err := newAsyncConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg.onError = StrategyCollect

	if len(items) == 0 {
		return []Result[R]{}, nil
	}

	gathered, err := asyncGather(ctx, items, fn, cfg)
	if err != nil {
		return nil, err
	}

	out := make([]Result[R], 0, len(items))
	for _, res := range gathered {
		if res.err != nil {
			out = append(out, Err[R](res.err))
		} else {
			out = append(out, Ok(res.value))
		}
	}
	return out, nil
}

// AsyncFilter keeps the items whose predicate reported true, preserving
// original relative order, with the same gate-bounded concurrency as AsyncMap.
func AsyncFilter[T any](
	ctx context.Context,
	items []T,
	pred func(context.Context, T) (bool, error),
	opts ...Option,
) ([]T, error) {
	cfg, err := newAsyncConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.onError == StrategyCollect {
		return nil, &ConfigError{Reason: "collect strategy is not applicable to AsyncFilter"}
	}

	if len(items) == 0 {
		return []T{}, nil
	}

	gathered, err := asyncGather(ctx, items, pred, cfg)
	if err != nil {
		return nil, err
	}

	kept := make([]T, 0, len(items))
	for i, res := range gathered {
		if res.err != nil {
			continue
		}
		if res.value {
			kept = append(kept, items[i])
		}
	}
	return kept, nil
}

// AsyncForEach applies fn to every item for its side effects only, under the
// admission-gate model.
func AsyncForEach[T any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) error,
	opts ...Option,
) error {
	_, err := AsyncMap(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	}, opts...)
	return err
}

type asyncOutcome[R any] struct {
	value R
	err   error
}

// asyncGather schedules every item up front and lets the admission gate, not
// batching, throttle concurrency. Each task acquires one permit before
// invoking fn and releases it on every exit path. Outcomes land in
// index-addressed slots, so no re-sort is needed; progress still advances in
// completion order.
func asyncGather[T any, R any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) (R, error),
	cfg *config,
) ([]asyncOutcome[R], error) {
	limit := asyncLimit(cfg.workers, len(items))
	gate := semaphore.NewWeighted(int64(limit))

	if cfg.reporter != nil {
		cfg.reporter.Start(len(items), cfg.label)
		defer cfg.reporter.Finish()
	}

	outcomes := make([]asyncOutcome[R], len(items))
	wrapped := withTimeout(fn, cfg.timeout)

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			if err := gate.Acquire(gctx, 1); err != nil {
				return err
			}
			defer gate.Release(1)

			value, err := callAsync(gctx, item, wrapped)
			if cfg.reporter != nil {
				cfg.reporter.Advance(1)
			}

			if err != nil {
				if cfg.onError == StrategyRaise {
					return &TaskError{Index: i, Cause: err}
				}
				outcomes[i] = asyncOutcome[R]{err: err}
				return nil
			}
			outcomes[i] = asyncOutcome[R]{value: value}
			return nil
		})
	}

	// Wait returns only after every launched goroutine has finished, which is
	// what guarantees no dangling work survives a raise-strategy abort.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// asyncLimit sizes the admission gate: the caller's worker count when set,
// otherwise one permit per item capped at 32.
func asyncLimit(workers, itemCount int) int {
	if workers > 0 {
		return workers
	}
	return min(maxWorkers, max(1, itemCount))
}

// callAsync invokes fn with panic recovery, mirroring the pool's behavior so
// a panicking task becomes a per-item failure instead of crashing the group.
func callAsync[T any, R any](
	ctx context.Context,
	item T,
	fn func(context.Context, T) (R, error),
) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("task panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	return fn(ctx, item)
}

// newAsyncConfig validates options for the async entry points, which run
// inside the caller's scheduler and have no isolated-worker mode.
func newAsyncConfig(opts ...Option) (*config, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.backend == BackendProcess {
		return nil, &ConfigError{Reason: "process backend is not available for async execution"}
	}
	return cfg, nil
}
