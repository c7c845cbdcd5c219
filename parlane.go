package parlane

import (
	"context"
)

// Map applies fn to every item using a bounded pool of concurrent workers and
// returns the results in input order, regardless of completion order.
//
// The error strategy governs failures: under StrategyRaise (the default) the
// first failure cancels remaining work and the call returns a TaskError
// wrapping the original cause; under StrategySkip failed items are silently
// dropped and the output may be shorter than the input. StrategyCollect is
// served by MapCollect.
//
// Example:
//
//	squares, err := parlane.Map(ctx, []int{1, 2, 3, 4},
//		func(ctx context.Context, x int) (int, error) { return x * x, nil })
//	// squares: [1 4 9 16]
func Map[T any, R any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) (R, error),
	opts ...Option,
) ([]R, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.onError == StrategyCollect {
		return nil, &ConfigError{Reason: "collect strategy returns wrapped results; use MapCollect"}
	}
	return run(ctx, items, fn, cfg)
}

// MapCollect applies fn to every item and returns one Result per input,
// success or failure, preserving length and order. Task failures never abort
// the call; the only error returned is a ConfigError for invalid options.
//
// Example:
//
//	results, _ := parlane.MapCollect(ctx, []int{1, 0}, invert)
//	// results: [Ok(1) Err(division by zero)]
func MapCollect[T any, R any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) (R, error),
	opts ...Option,
) ([]Result[R], error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg.onError = StrategyCollect
	return runCollect(ctx, items, fn, cfg)
}

// Filter runs pred over every item concurrently and returns the items for
// which it reported true, preserving original relative order. Under
// StrategySkip a failing predicate drops its item; under StrategyRaise it
// fails the call.
func Filter[T any](
	ctx context.Context,
	items []T,
	pred func(context.Context, T) (bool, error),
	opts ...Option,
) ([]T, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.onError == StrategyCollect {
		return nil, &ConfigError{Reason: "collect strategy is not applicable to Filter"}
	}

	if len(items) == 0 {
		return []T{}, nil
	}

	if cfg.onError == StrategyRaise {
		// Raise either yields a full-length mask or fails the call, so the
		// mask stays index-aligned with items.
		mask, err := run(ctx, items, pred, cfg)
		if err != nil {
			return nil, err
		}
		kept := make([]T, 0, len(items))
		for i, keep := range mask {
			if keep {
				kept = append(kept, items[i])
			}
		}
		return kept, nil
	}

	// Skip drops failing items, which would break mask alignment, so it runs
	// through the collect machinery to keep per-item outcomes indexed.
	mask, err := runCollect(ctx, items, pred, cfg.collectVariant())
	if err != nil {
		return nil, err
	}

	kept := make([]T, 0, len(items))
	for i, res := range mask {
		if res.IsErr() {
			continue
		}
		if res.Value() {
			kept = append(kept, items[i])
		}
	}
	return kept, nil
}

// ForEach applies fn to every item for its side effects only. The error
// strategy applies exactly as in Map; under StrategySkip failures are
// silently ignored.
func ForEach[T any](
	ctx context.Context,
	items []T,
	fn func(context.Context, T) error,
	opts ...Option,
) error {
	_, err := Map(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	}, opts...)
	return err
}

// StarMap is Map for variadic functions: each element of args is a tuple of
// positional arguments, unpacked when invoking fn.
//
// Example:
//
//	pow := func(ctx context.Context, args ...any) (int, error) {
//		return intPow(args[0].(int), args[1].(int)), nil
//	}
//	out, _ := parlane.StarMap(ctx, [][]any{{2, 10}, {3, 5}, {10, 3}}, pow)
//	// out: [1024 243 1000]
func StarMap[R any](
	ctx context.Context,
	args [][]any,
	fn func(context.Context, ...any) (R, error),
	opts ...Option,
) ([]R, error) {
	return Map(ctx, args, starAdapter(fn), opts...)
}

// StarMapCollect is MapCollect with StarMap's argument unpacking.
func StarMapCollect[R any](
	ctx context.Context,
	args [][]any,
	fn func(context.Context, ...any) (R, error),
	opts ...Option,
) ([]Result[R], error) {
	return MapCollect(ctx, args, starAdapter(fn), opts...)
}

func starAdapter[R any](fn func(context.Context, ...any) (R, error)) func(context.Context, []any) (R, error) {
	return func(ctx context.Context, tuple []any) (R, error) {
		return fn(ctx, tuple...)
	}
}

// collectVariant returns a copy of the config with the collect strategy, used
// internally where per-item outcomes must stay index-aligned.
func (cfg *config) collectVariant() *config {
	dup := *cfg
	dup.onError = StrategyCollect
	return &dup
}
