// Package pipeline provides a lazy, immutable, multi-stage processing chain
// on top of the parlane execution engine.
//
// Stages (map, filter, flat-map, batch) are recorded but not executed until a
// terminal method (Collect, Reduce, Count, First) is called. Every stage or
// configuration call returns a new Pipeline value; the original is unchanged
// and can be reused to start independent runs.
//
// Where a stage changes the element type, Go methods cannot introduce new
// type parameters, so those stages are free functions:
//
//	p := pipeline.From([]int{1, 2, 3, 4, 5})
//	doubled := pipeline.Map(p, func(ctx context.Context, x int) (int, error) {
//		return x * 2, nil
//	})
//	big, err := doubled.Filter(func(ctx context.Context, x int) (bool, error) {
//		return x > 4, nil
//	}).Collect(ctx)
//	// big: [6 8 10]
package pipeline

import (
	"context"
	"fmt"

	"github.com/utkarsh5026/parlane"
)

type stageKind int

const (
	stageMap stageKind = iota
	stageFilter
	stageFlatMap
	stageBatch
)

// stage is one node of the operation chain. Map, filter and flat-map stages
// carry an apply function producing zero or more outputs per element; batch
// stages carry a size and a regroup function instead.
type stage struct {
	kind  stageKind
	apply func(context.Context, any) ([]any, error)
	size  int
	group func([]any) any
}

// Pipeline is an immutable, lazily-evaluated chain of stages over a finite
// source. The zero value is not useful; construct with From.
//
// Type parameters:
//   - T: The element type produced by the chain so far
type Pipeline[T any] struct {
	source   []any
	stages   []stage
	workers  int
	backend  parlane.Backend
	onError  parlane.ErrorStrategy
	reporter parlane.Reporter
	label    string
	buildErr error
}

// From creates a pipeline over the given source slice. The slice is copied,
// so later mutation of the argument does not affect pending runs.
func From[T any](items []T) Pipeline[T] {
	source := make([]any, len(items))
	for i, item := range items {
		source[i] = item
	}
	return Pipeline[T]{
		source:  source,
		backend: parlane.BackendAuto,
		onError: parlane.StrategyRaise,
	}
}

// extend returns a new pipeline with one more stage. The full slice
// expression pins the capacity so appending never mutates a shared backing
// array: two branches extended from the same pipeline stay independent.
func extend[T any, U any](p Pipeline[T], s stage) Pipeline[U] {
	return Pipeline[U]{
		source:   p.source,
		stages:   append(p.stages[:len(p.stages):len(p.stages)], s),
		workers:  p.workers,
		backend:  p.backend,
		onError:  p.onError,
		reporter: p.reporter,
		label:    p.label,
		buildErr: p.buildErr,
	}
}

// with copies the pipeline, applies one configuration change, and pins the
// stage slice capacity so the copy shares no appendable state with p.
func (p Pipeline[T]) with(mutate func(*Pipeline[T])) Pipeline[T] {
	dup := p
	dup.stages = p.stages[:len(p.stages):len(p.stages)]
	mutate(&dup)
	return dup
}

// Map adds a parallel transform stage.
func Map[T any, U any](p Pipeline[T], fn func(context.Context, T) (U, error)) Pipeline[U] {
	return extend[T, U](p, stage{
		kind: stageMap,
		apply: func(ctx context.Context, v any) ([]any, error) {
			out, err := fn(ctx, v.(T))
			if err != nil {
				return nil, err
			}
			return []any{out}, nil
		},
	})
}

// FlatMap adds a stage expanding each element into zero or more outputs, each
// fed forward independently.
func FlatMap[T any, U any](p Pipeline[T], fn func(context.Context, T) ([]U, error)) Pipeline[U] {
	return extend[T, U](p, stage{
		kind: stageFlatMap,
		apply: func(ctx context.Context, v any) ([]any, error) {
			outs, err := fn(ctx, v.(T))
			if err != nil {
				return nil, err
			}
			expanded := make([]any, len(outs))
			for i, out := range outs {
				expanded[i] = out
			}
			return expanded, nil
		},
	})
}

// Batch adds a stage accumulating elements into groups of size; the last
// group may be shorter. A size below 1 surfaces as a ConfigError at terminal
// time.
func Batch[T any](p Pipeline[T], size int) Pipeline[[]T] {
	out := extend[T, []T](p, stage{
		kind: stageBatch,
		size: size,
		group: func(group []any) any {
			typed := make([]T, len(group))
			for i, v := range group {
				typed[i] = v.(T)
			}
			return typed
		},
	})
	if size < 1 && out.buildErr == nil {
		out.buildErr = &parlane.ConfigError{Reason: fmt.Sprintf("batch size must be >= 1, got %d", size)}
	}
	return out
}

// Filter adds a parallel predicate stage keeping elements for which pred
// reports true.
func (p Pipeline[T]) Filter(pred func(context.Context, T) (bool, error)) Pipeline[T] {
	return extend[T, T](p, stage{
		kind: stageFilter,
		apply: func(ctx context.Context, v any) ([]any, error) {
			keep, err := pred(ctx, v.(T))
			if err != nil {
				return nil, err
			}
			if !keep {
				return nil, nil
			}
			return []any{v}, nil
		},
	})
}

// Workers sets the parallel worker count used by terminal evaluation.
func (p Pipeline[T]) Workers(n int) Pipeline[T] {
	return p.with(func(dup *Pipeline[T]) { dup.workers = n })
}

// Backend sets the execution backend used by terminal evaluation.
func (p Pipeline[T]) Backend(b parlane.Backend) Pipeline[T] {
	return p.with(func(dup *Pipeline[T]) { dup.backend = b })
}

// OnError sets the error strategy. Pipelines accept StrategyRaise and
// StrategySkip; StrategyCollect would interleave wrapped results into a typed
// stream and is rejected at terminal time.
func (p Pipeline[T]) OnError(s parlane.ErrorStrategy) Pipeline[T] {
	return p.with(func(dup *Pipeline[T]) { dup.onError = s })
}

// Progress installs a progress reporter for terminal evaluation. Each
// parallel pass reports its own start/advance/finish cycle.
func (p Pipeline[T]) Progress(r parlane.Reporter, label string) Pipeline[T] {
	return p.with(func(dup *Pipeline[T]) {
		dup.reporter = r
		dup.label = label
	})
}
