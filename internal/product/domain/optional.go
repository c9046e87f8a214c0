package domain

// Optional marks whether a patch field was supplied. The zero value is unset,
// so a supplied zero (quantity 0, is_active false) stays distinguishable.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}
