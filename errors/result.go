package errors

// Result is the outcome of an operation that reports per-item success
// without aborting its siblings.
type Result[T any] struct {
	Success bool  `json:"success"`
	Value   T     `json:"value,omitempty"`
	Err     error `json:"-"`
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Success: true, Value: v}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Of builds a Result from a (value, error) pair.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// Unwrap returns the value and error as a pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}
