package parlane

import (
	"errors"
	"testing"
)

func TestResult_OkAccessors(t *testing.T) {
	r := Ok(42)

	if !r.IsOk() || r.IsErr() {
		t.Fatalf("expected Ok variant, got %v", r)
	}
	if r.Value() != 42 {
		t.Errorf("expected value 42, got %d", r.Value())
	}
	if r.Err() != nil {
		t.Errorf("expected nil error, got %v", r.Err())
	}

	v, err := r.Get()
	if v != 42 || err != nil {
		t.Errorf("Get returned (%d, %v)", v, err)
	}
	if r.String() != "Ok(42)" {
		t.Errorf("unexpected String: %q", r.String())
	}
}

func TestResult_ErrAccessors(t *testing.T) {
	cause := errors.New("boom")
	r := Err[int](cause)

	if r.IsOk() || !r.IsErr() {
		t.Fatalf("expected Err variant, got %v", r)
	}
	if r.Value() != 0 {
		t.Errorf("expected zero value, got %d", r.Value())
	}
	if !errors.Is(r.Err(), cause) {
		t.Errorf("cause not preserved: %v", r.Err())
	}
	if r.String() != "Err(boom)" {
		t.Errorf("unexpected String: %q", r.String())
	}
}

func TestResult_MustGet(t *testing.T) {
	if got := Ok("hello").MustGet(); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected MustGet on Err to panic")
		}
	}()
	Err[string](errors.New("boom")).MustGet()
}
