package result

import "fmt"

// Unit is the value carried by results that only report success or failure.
type Unit = struct{}

// Result holds either a value or an error. Expected failures (I/O, parsing,
// installer outcomes) travel through Results and are inspected explicitly;
// panics are reserved for caller bugs.
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

func Errf[T any](format string, args ...any) Result[T] {
	return Result[T]{err: fmt.Errorf(format, args...)}
}

func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Get returns the value and the error, exactly one of which is meaningful.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

func (r Result[T]) Err() error {
	return r.err
}

// AndThen runs f on the value if the result is Ok, otherwise passes the
// error through unchanged.
func (r Result[T]) AndThen(f func(T) Result[T]) Result[T] {
	if r.err != nil {
		return r
	}
	return f(r.value)
}

// OrElse runs f on the error if the result is an Err, otherwise passes the
// value through unchanged.
func (r Result[T]) OrElse(f func(error) Result[T]) Result[T] {
	if r.err == nil {
		return r
	}
	return f(r.err)
}

func (r Result[T]) OnSuccess(f func(T)) Result[T] {
	if r.err == nil {
		f(r.value)
	}
	return r
}

func (r Result[T]) OnFailure(f func(error)) Result[T] {
	if r.err != nil {
		f(r.err)
	}
	return r
}

// Map transforms an Ok value into a Result of a different type.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(f(r.value))
}

// AndThen chains a type-changing fallible step onto an Ok value.
func AndThen[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return f(r.value)
}
