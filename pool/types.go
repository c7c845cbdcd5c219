package pool

import "context"

// ProcessFunc is the function applied to each task by the worker pool.
// It takes a context for cancellation control and a task of type T, returning
// a result of type R or an error.
//
// Type parameters:
//   - T: The type of input task to be processed
//   - R: The type of result produced after processing
type ProcessFunc[T any, R any] func(ctx context.Context, task T) (R, error)

// Result represents the outcome of processing a single task.
// It carries the task's original position so consumers can restore input
// order after out-of-order completion.
//
// Fields:
//   - Value: The result produced by processing the task (only valid if Err is nil)
//   - Err: Any error that occurred during task processing (nil if successful)
//   - Index: The original position of the task in the input slice
type Result[R any] struct {
	Value R
	Err   error
	Index int
}

// indexedTask pairs a task with its position in the input slice.
type indexedTask[T any] struct {
	index int
	task  T
}
