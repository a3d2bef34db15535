package result

import "fmt"

// Optional holds a value that may be absent. Absence is a normal state
// (missing receipt, no in-flight handle), never an error.
type Optional[T any] struct {
	value   T
	present bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) IsPresent() bool {
	return o.present
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// MustGet returns the value or panics. Only for call sites where absence is a
// programming error.
func (o Optional[T]) MustGet() T {
	if !o.present {
		panic(fmt.Sprintf("optional %T is absent", o.value))
	}
	return o.value
}

func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

func (o Optional[T]) OrElseGet(f func() T) T {
	if o.present {
		return o.value
	}
	return f()
}

// OkOr converts presence into an Ok result and absence into the given error.
func (o Optional[T]) OkOr(err error) Result[T] {
	if o.present {
		return Ok(o.value)
	}
	return Err[T](err)
}

// MapOptional transforms a present value into an Optional of a different type.
func MapOptional[T, U any](o Optional[T], f func(T) U) Optional[U] {
	if !o.present {
		return None[U]()
	}
	return Some(f(o.value))
}
