package parlane

import (
	"fmt"
	"time"

	"github.com/utkarsh5026/parlane/pool"
)

// TaskError reports the failure of a single task along with the index of the
// input item that produced it. It wraps the original cause, so errors.Is and
// errors.As can reach the user function's error.
type TaskError = pool.TaskError

// TransferError reports a value that could not be copied across the isolated
// worker boundary. It is produced at submission or result-retrieval time,
// never earlier.
type TransferError = pool.TransferError

// TimeoutError reports a task that exceeded its per-task wall-clock bound.
// It is treated as an ordinary task failure: the configured error strategy
// decides whether it aborts the call, skips the item, or is collected.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task timed out after %s", e.Limit)
}

// ConfigError reports invalid execution options. It is always returned
// immediately, before any task is dispatched, regardless of the configured
// error strategy.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Reason
}

// EmptyReduceError is returned by a pipeline Reduce over an empty sequence.
// Like ConfigError, it is never subject to the error strategy.
type EmptyReduceError struct{}

func (e *EmptyReduceError) Error() string {
	return "reduce of empty sequence"
}
