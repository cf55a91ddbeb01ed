package pkg

// Option is a functional option that returns a modified copy of T.
type Option[T any] func(T) T

// Make returns a zero T with all opts applied in order.
func Make[T any](opts ...Option[T]) T {
	var t T

	return Wrap(t, opts...)
}

// Wrap returns t with all opts applied in order.
// Nil options are skipped.
func Wrap[T any](t T, opts ...Option[T]) T {
	for _, opt := range opts {
		if opt != nil {
			t = opt(t)
		}
	}

	return t
}
