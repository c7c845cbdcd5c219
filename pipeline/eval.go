package pipeline

import (
	"context"

	"github.com/utkarsh5026/parlane"
)

// Collect evaluates the chain and returns the full ordered sequence of
// final-stage outputs. Under StrategySkip, elements whose stage function
// failed are absent; everything else is in source order.
func (p Pipeline[T]) Collect(ctx context.Context) ([]T, error) {
	raw, err := p.run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(raw))
	for i, v := range raw {
		out[i] = v.(T)
	}
	return out, nil
}

// Reduce evaluates the chain and folds the ordered result sequence into one
// value with combine, left to right. An empty sequence fails with
// EmptyReduceError regardless of the error strategy.
func (p Pipeline[T]) Reduce(ctx context.Context, combine func(T, T) (T, error)) (T, error) {
	var zero T

	out, err := p.Collect(ctx)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, &parlane.EmptyReduceError{}
	}

	acc := out[0]
	for _, v := range out[1:] {
		acc, err = combine(acc, v)
		if err != nil {
			return zero, err
		}
	}
	return acc, nil
}

// Count evaluates the chain and returns the number of results.
func (p Pipeline[T]) Count(ctx context.Context) (int, error) {
	out, err := p.run(ctx)
	if err != nil {
		return 0, err
	}
	return len(out), nil
}

// First evaluates the chain and returns the first result. The boolean is
// false when the result sequence is empty.
func (p Pipeline[T]) First(ctx context.Context) (T, bool, error) {
	var zero T

	out, err := p.Collect(ctx)
	if err != nil {
		return zero, false, err
	}
	if len(out) == 0 {
		return zero, false, nil
	}
	return out[0], true, nil
}

// run compiles and executes the stage chain. The chain is split into
// segments at batch boundaries: within a segment, map/filter/flat-map stages
// fold into a single composed per-element function executed in one parallel
// pass over the segment's input, so an arbitrarily long segment costs one
// bounded-concurrency pass instead of one pass per stage. Batch stages
// regroup sequentially between passes. Because filter and flat-map change
// stream cardinality, order restoration applies to each segment's input
// sequence; the flatten step below preserves that order.
func (p Pipeline[T]) run(ctx context.Context) ([]any, error) {
	if p.buildErr != nil {
		return nil, p.buildErr
	}
	if p.onError == parlane.StrategyCollect {
		return nil, &parlane.ConfigError{
			Reason: "collect strategy is not applicable to pipelines; use MapCollect on the stage function instead",
		}
	}

	data := p.source
	segment := make([]stage, 0, len(p.stages))

	flush := func() error {
		if len(segment) == 0 || len(data) == 0 {
			segment = segment[:0]
			return nil
		}

		composed := composeSegment(segment)
		nested, err := parlane.Map(ctx, data, composed, p.options()...)
		if err != nil {
			return err
		}

		flat := make([]any, 0, len(nested))
		for _, outs := range nested {
			flat = append(flat, outs...)
		}
		data = flat
		segment = segment[:0]
		return nil
	}

	for _, s := range p.stages {
		if s.kind != stageBatch {
			segment = append(segment, s)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		data = regroup(data, s.size, s.group)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return data, nil
}

// composeSegment folds consecutive non-batch stages into one per-element
// function. A filter contributes zero or one outputs, a flat-map zero or
// more; every intermediate value is fed through the remaining stages
// independently.
func composeSegment(stages []stage) func(context.Context, any) ([]any, error) {
	return func(ctx context.Context, v any) ([]any, error) {
		values := []any{v}
		for _, s := range stages {
			next := make([]any, 0, len(values))
			for _, value := range values {
				outs, err := s.apply(ctx, value)
				if err != nil {
					return nil, err
				}
				next = append(next, outs...)
			}
			values = next
			if len(values) == 0 {
				break
			}
		}
		return values, nil
	}
}

// regroup accumulates elements into fixed-size groups; the last group may be
// shorter. Runs sequentially: grouping is inherently stateful across
// elements and costs O(n) with no user code involved.
func regroup(data []any, size int, group func([]any) any) []any {
	if len(data) == 0 {
		return data
	}

	grouped := make([]any, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		grouped = append(grouped, group(data[start:end]))
	}
	return grouped
}

func (p Pipeline[T]) options() []parlane.Option {
	opts := []parlane.Option{
		parlane.WithBackend(p.backend),
		parlane.WithOnError(p.onError),
	}
	if p.workers > 0 {
		opts = append(opts, parlane.WithWorkers(p.workers))
	}
	if p.reporter != nil {
		opts = append(opts, parlane.WithProgress(p.reporter), parlane.WithProgressLabel(p.label))
	}
	return opts
}
