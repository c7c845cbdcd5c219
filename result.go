package parlane

import "fmt"

// Result is a tagged union of a successful value or a failure, used by the
// collect error strategy. Exactly one of the two variants is set; IsOk and
// IsErr report which.
//
// Type parameters:
//   - R: The type of the successful value
type Result[R any] struct {
	value R
	err   error
}

// Ok wraps a successful value.
func Ok[R any](value R) Result[R] {
	return Result[R]{value: value}
}

// Err wraps a failure. The error is the original cause produced by the task,
// not a copy, so callers can distinguish failure causes with errors.Is/As.
func Err[R any](err error) Result[R] {
	return Result[R]{err: err}
}

// IsOk reports whether the result holds a successful value.
func (r Result[R]) IsOk() bool {
	return r.err == nil
}

// IsErr reports whether the result holds a failure.
func (r Result[R]) IsErr() bool {
	return r.err != nil
}

// Get returns the value and the error. For an Ok result the error is nil;
// for an Err result the value is the zero value of R.
func (r Result[R]) Get() (R, error) {
	return r.value, r.err
}

// Value returns the successful value, or the zero value of R for an Err result.
func (r Result[R]) Value() R {
	return r.value
}

// Err returns the failure, or nil for an Ok result.
func (r Result[R]) Err() error {
	return r.err
}

// MustGet returns the value or panics with the wrapped error.
// It is the exhaustive-match escape hatch for callers that have already
// checked IsOk.
func (r Result[R]) MustGet() R {
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}

func (r Result[R]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Err(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}
