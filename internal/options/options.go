// Package options implements the functional option pattern shared by the
// configurable constructors in this module.
package options

// Option configures a target of type T and may reject invalid settings by
// returning an error.
type Option[T any] func(T) error

// NoError wraps a setter that cannot fail into an Option.
func NoError[T any](fn func(T)) Option[T] {
	return func(target T) error {
		fn(target)
		return nil
	}
}

// Apply runs each option against the target in order, stopping at the first
// error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(target); err != nil {
			return err
		}
	}

	return nil
}
