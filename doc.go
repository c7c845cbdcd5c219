// Package parlane is a small, generic concurrent task-execution engine:
// apply a function to every element of a slice with a bounded pool of
// workers, get results back in input order, and pick how failures are
// handled. A lazy pipeline layer (package pipeline) composes multi-stage
// chains on top of the same executor.
//
// # Basic Usage
//
//	ctx := context.Background()
//	squares, err := parlane.Map(ctx, []int{1, 2, 3, 4},
//		func(ctx context.Context, x int) (int, error) {
//			return x * x, nil
//		})
//	// squares: [1 4 9 16]
//
// # Error Strategies
//
// Three policies govern per-task failures:
//
//   - StrategyRaise (default): the first failure cancels remaining work and
//     fails the whole call with a TaskError wrapping the original cause. No
//     partial results are returned.
//   - StrategySkip: failed items are silently dropped; the output may be
//     shorter than the input, survivor order is preserved.
//   - StrategyCollect: every outcome is wrapped into a Result at its original
//     position. Served by MapCollect and StarMapCollect, since the wrapped
//     return type differs.
//
//	halves, err := parlane.Map(ctx, []float64{1, 0, 2}, invert,
//		parlane.WithOnError(parlane.StrategySkip))
//	// halves: [1 0.5] — the failing item is gone, order kept
//
// # Backends
//
// Tasks run on one of two backends. The thread backend uses shared-memory
// goroutine workers. The process backend uses isolated workers: every input
// and output is copied across the worker boundary with gob, so workers share
// no memory with the caller; values that cannot be encoded fail with a
// TransferError. BackendAuto (the default) picks the thread backend when
// goroutines can run user code truly in parallel and the process backend
// otherwise; an explicit WithBackend choice always wins.
//
// Default worker counts follow the usual pool-sizing heuristics and never
// exceed the item count: min(32, cpus+4, items) for threads,
// min(32, cpus, items) for isolated workers.
//
// # Async Execution
//
// AsyncMap, AsyncFilter, AsyncForEach and AsyncMapCollect bound concurrency
// with a counting admission gate instead of a worker pool: every task is
// scheduled up front and at most min(32, workers-or-items) run their function
// body at once. Contracts for ordering, error strategies and progress match
// the pool-based calls.
//
// # Progress
//
// Pass a Reporter with WithProgress to receive one notification per completed
// task, in completion order. Package progress renders these as a terminal
// bar; the engine itself never draws anything.
//
// # Timeouts
//
// WithTimeout bounds each task by wall clock. An expired task fails with a
// TimeoutError, handled by the error strategy like any other failure.
package parlane
