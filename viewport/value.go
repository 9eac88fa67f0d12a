package viewport

// Value is an option that is either a literal or computed from the viewport
// each time it is read. Read it only through Resolve.
type Value[T any] struct {
	lit T
	fn  func(*Viewport) T
}

// Literal returns a Value that always resolves to x.
func Literal[T any](x T) Value[T] {
	return Value[T]{lit: x}
}

// Computed returns a Value resolved by calling fn.
func Computed[T any](fn func(*Viewport) T) Value[T] {
	return Value[T]{fn: fn}
}

// Resolve returns the value for v.
func (x Value[T]) Resolve(v *Viewport) T {
	if x.fn != nil {
		return x.fn(v)
	}
	return x.lit
}

// IsComputed reports whether x is backed by a function.
func (x Value[T]) IsComputed() bool {
	return x.fn != nil
}
