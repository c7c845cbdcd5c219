package pool

import (
	"bytes"
	"encoding/gob"
	"reflect"
)

// roundTrip copies a value across the worker boundary by encoding and
// decoding it with gob. The copy shares no memory with the original, which is
// what gives isolated workers their process-like semantics. Interface-typed
// values are copied through their concrete type, so plain values work without
// gob.Register; interface-typed fields inside a value still need it.
func roundTrip[V any](v V) (V, error) {
	var zero V

	copied, err := deepCopy(any(v))
	if err != nil {
		return zero, err
	}
	if copied == nil {
		return zero, nil
	}
	return copied.(V), nil
}

func deepCopy(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(v)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).EncodeValue(rv); err != nil {
		return nil, err
	}

	out := reflect.New(rv.Type())
	if err := gob.NewDecoder(&buf).DecodeValue(out); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}
