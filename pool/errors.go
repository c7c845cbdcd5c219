package pool

import "fmt"

// TaskError reports the failure of a single task together with the index of
// the input item that produced it. The original cause is wrapped, not
// replaced, so errors.Is and errors.As reach it.
type TaskError struct {
	Index int
	Cause error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d: %v", e.Index, e.Cause)
}

func (e *TaskError) Unwrap() error {
	return e.Cause
}

// TransferError reports a value that could not be copied across the isolated
// worker boundary. Direction is "input" for values entering a worker and
// "output" for results leaving it.
type TransferError struct {
	Direction string
	Cause     error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s value not transferable across worker boundary: %v", e.Direction, e.Cause)
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}
