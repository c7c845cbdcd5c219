package parlane

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

var errDivZero = errors.New("division by zero")

func invert(ctx context.Context, x float64) (float64, error) {
	if x == 0 {
		return 0, errDivZero
	}
	return 1 / x, nil
}

func TestMap_BasicFunctionality(t *testing.T) {
	squares, err := Map(context.Background(), []int{1, 2, 3, 4}, func(ctx context.Context, x int) (int, error) {
		return x * x, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(squares, []int{1, 4, 9, 16}) {
		t.Fatalf("expected [1 4 9 16], got %v", squares)
	}
}

func TestMap_EmptyInput(t *testing.T) {
	for _, strategy := range []ErrorStrategy{StrategyRaise, StrategySkip} {
		t.Run(string(strategy), func(t *testing.T) {
			var dispatched atomic.Int32
			out, err := Map(context.Background(), []int{}, func(ctx context.Context, x int) (int, error) {
				dispatched.Add(1)
				return x, nil
			}, WithOnError(strategy))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out) != 0 {
				t.Fatalf("expected empty output, got %v", out)
			}
			if dispatched.Load() != 0 {
				t.Errorf("expected no task dispatched, got %d", dispatched.Load())
			}
		})
	}
}

func TestMap_OrderPreservedUnderRandomCompletion(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	out, err := Map(context.Background(), items, func(ctx context.Context, x int) (int, error) {
		time.Sleep(time.Duration(rand.Intn(4)) * time.Millisecond)
		return x * 3, nil
	}, WithWorkers(16))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, v := range out {
		if v != i*3 {
			t.Fatalf("position %d holds %d; input order not preserved", i, v)
		}
	}
}

func TestMap_RaiseStrategy_NoPartialResults(t *testing.T) {
	_, err := Map(context.Background(), []float64{1, 0, 2}, invert)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected *TaskError, got %T: %v", err, err)
	}
	if taskErr.Index != 1 {
		t.Errorf("expected failing index 1, got %d", taskErr.Index)
	}
	if !errors.Is(err, errDivZero) {
		t.Errorf("original cause not reachable through %v", err)
	}
}

func TestMap_SkipStrategy_DropsFailedItems(t *testing.T) {
	out, err := Map(context.Background(), []float64{1, 0, 2}, invert,
		WithOnError(StrategySkip))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(out, []float64{1, 0.5}) {
		t.Fatalf("expected [1 0.5], got %v", out)
	}
}

func TestMap_CollectStrategyRejected(t *testing.T) {
	_, err := Map(context.Background(), []int{1}, func(ctx context.Context, x int) (int, error) {
		return x, nil
	}, WithOnError(StrategyCollect))

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError pointing at MapCollect, got %v", err)
	}
}

func TestMapCollect_WrapsEveryOutcome(t *testing.T) {
	results, err := MapCollect(context.Background(), []float64{1, 0}, invert)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].IsOk() || results[0].Value() != 1 {
		t.Errorf("expected Ok(1), got %v", results[0])
	}
	if !results[1].IsErr() {
		t.Fatalf("expected Err, got %v", results[1])
	}
	if !errors.Is(results[1].Err(), errDivZero) {
		t.Errorf("collected error lost its cause: %v", results[1].Err())
	}
}

func TestMapCollect_LengthAlwaysMatchesInput(t *testing.T) {
	items := make([]int, 40)
	for i := range items {
		items[i] = i
	}

	results, err := MapCollect(context.Background(), items, func(ctx context.Context, x int) (int, error) {
		if x%3 == 0 {
			return 0, fmt.Errorf("item %d failed", x)
		}
		return x, nil
	}, WithWorkers(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, res := range results {
		if i%3 == 0 && !res.IsErr() {
			t.Errorf("index %d: expected Err, got %v", i, res)
		}
		if i%3 != 0 && (!res.IsOk() || res.Value() != i) {
			t.Errorf("index %d: expected Ok(%d), got %v", i, i, res)
		}
	}
}

func TestMap_BackendOverride_IdenticalValues(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	double := func(ctx context.Context, x int) (int, error) {
		return x * 2, nil
	}

	threaded, err := Map(context.Background(), items, double, WithBackend(BackendThread))
	if err != nil {
		t.Fatalf("thread backend: %v", err)
	}
	isolated, err := Map(context.Background(), items, double, WithBackend(BackendProcess))
	if err != nil {
		t.Fatalf("process backend: %v", err)
	}

	if !reflect.DeepEqual(threaded, isolated) {
		t.Fatalf("backends disagree: thread=%v process=%v", threaded, isolated)
	}
}

func TestMap_ProcessBackend_NonTransferableValue(t *testing.T) {
	_, err := Map(context.Background(), []chan int{make(chan int)}, func(ctx context.Context, c chan int) (int, error) {
		return 0, nil
	}, WithBackend(BackendProcess))
	if err == nil {
		t.Fatal("expected TransferError, got nil")
	}

	var transferErr *TransferError
	if !errors.As(err, &transferErr) {
		t.Fatalf("expected *TransferError, got %T: %v", err, err)
	}
}

func TestMap_Timeout_ConvertsToTimeoutError(t *testing.T) {
	results, err := MapCollect(context.Background(), []int{1, 2}, func(ctx context.Context, x int) (int, error) {
		if x == 2 {
			time.Sleep(300 * time.Millisecond)
		}
		return x, nil
	}, WithTimeout(30*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !results[0].IsOk() {
		t.Errorf("fast task should succeed, got %v", results[0])
	}

	var timeoutErr *TimeoutError
	if !errors.As(results[1].Err(), &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %v", results[1].Err())
	}
}

func TestMap_Timeout_SubjectToRaiseStrategy(t *testing.T) {
	_, err := Map(context.Background(), []int{1}, func(ctx context.Context, x int) (int, error) {
		time.Sleep(300 * time.Millisecond)
		return x, nil
	}, WithTimeout(20*time.Millisecond), WithProgress(&countingReporter{}))
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError cause, got %v", err)
	}
}

func TestFilter_KeepsMatchingInOrder(t *testing.T) {
	out, err := Filter(context.Background(), []int{1, 2, 3, 4, 5}, func(ctx context.Context, x int) (bool, error) {
		return x%2 == 1, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(out, []int{1, 3, 5}) {
		t.Fatalf("expected [1 3 5], got %v", out)
	}
}

func TestFilter_SkipStrategy_DropsFailingPredicates(t *testing.T) {
	out, err := Filter(context.Background(), []int{1, 2, 3, 4}, func(ctx context.Context, x int) (bool, error) {
		if x == 2 {
			return false, errors.New("predicate broke")
		}
		return true, nil
	}, WithOnError(StrategySkip))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(out, []int{1, 3, 4}) {
		t.Fatalf("expected [1 3 4], got %v", out)
	}
}

func TestFilter_RaiseStrategy_FailsCall(t *testing.T) {
	_, err := Filter(context.Background(), []int{1, 2}, func(ctx context.Context, x int) (bool, error) {
		if x == 2 {
			return false, errors.New("predicate broke")
		}
		return true, nil
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestForEach_SideEffectsOnly(t *testing.T) {
	var sum atomic.Int64

	err := ForEach(context.Background(), []int{1, 2, 3, 4}, func(ctx context.Context, x int) error {
		sum.Add(int64(x))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sum.Load() != 10 {
		t.Fatalf("expected sum 10, got %d", sum.Load())
	}
}

func TestForEach_RaisePropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(context.Background(), []int{1, 2, 3}, func(ctx context.Context, x int) error {
		if x == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom cause, got %v", err)
	}
}

func TestStarMap_UnpacksArgumentTuples(t *testing.T) {
	pow := func(ctx context.Context, args ...any) (int, error) {
		base, exp := args[0].(int), args[1].(int)
		result := 1
		for range exp {
			result *= base
		}
		return result, nil
	}

	out, err := StarMap(context.Background(), [][]any{{2, 10}, {3, 5}, {10, 3}}, pow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(out, []int{1024, 243, 1000}) {
		t.Fatalf("expected [1024 243 1000], got %v", out)
	}
}

// countingReporter records engine notifications; used instead of the terminal
// renderer to keep test output clean.
type countingReporter struct {
	total    atomic.Int64
	advanced atomic.Int64
	finished atomic.Int64
}

func (r *countingReporter) Start(total int, label string) { r.total.Store(int64(total)) }
func (r *countingReporter) Advance(n int)                 { r.advanced.Add(int64(n)) }
func (r *countingReporter) Finish()                       { r.finished.Add(1) }

func TestMap_Progress_OneAdvancePerTask(t *testing.T) {
	rep := &countingReporter{}
	items := make([]int, 25)

	_, err := Map(context.Background(), items, func(ctx context.Context, x int) (int, error) {
		return x, nil
	}, WithProgress(rep), WithProgressLabel("crunching"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rep.total.Load() != 25 {
		t.Errorf("expected Start(25), got %d", rep.total.Load())
	}
	if rep.advanced.Load() != 25 {
		t.Errorf("expected 25 advances, got %d", rep.advanced.Load())
	}
	if rep.finished.Load() != 1 {
		t.Errorf("expected exactly one Finish, got %d", rep.finished.Load())
	}
}

func TestMap_Progress_FinishCalledOnFailure(t *testing.T) {
	rep := &countingReporter{}

	_, err := Map(context.Background(), []float64{1, 0, 2}, invert, WithProgress(rep))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if rep.finished.Load() != 1 {
		t.Errorf("expected Finish on failure path, got %d calls", rep.finished.Load())
	}
}

func TestMap_PanicBecomesTaskFailure(t *testing.T) {
	results, err := MapCollect(context.Background(), []int{1, 2}, func(ctx context.Context, x int) (int, error) {
		if x == 2 {
			panic("kaboom")
		}
		return x, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !results[0].IsOk() {
		t.Errorf("expected Ok for non-panicking task, got %v", results[0])
	}
	if !results[1].IsErr() {
		t.Errorf("expected panicking task collected as Err, got %v", results[1])
	}
}
