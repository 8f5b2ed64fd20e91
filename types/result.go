package types

import "errors"

// Result is the uniform outcome of every public operation: either OK with
// Data, or not OK with a human-readable Error. Cause keeps the underlying
// error for callers that want errors.Is/As.
type Result[T any] struct {
	OK    bool   `json:"ok"`
	Data  T      `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Cause error  `json:"-"`
}

// Success wraps data in an OK result
func Success[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: data}
}

// Failure builds a failed result from err
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result[T]{Error: err.Error(), Cause: err}
}

// Unwrap converts the result into the usual (value, error) pair
func (r Result[T]) Unwrap() (T, error) {
	if r.OK {
		return r.Data, nil
	}
	if r.Cause != nil {
		return r.Data, r.Cause
	}
	return r.Data, errors.New(r.Error)
}

// Err returns nil for OK results and the failure cause otherwise
func (r Result[T]) Err() error {
	_, err := r.Unwrap()
	return err
}
