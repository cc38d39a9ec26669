package sanitizer

// Apply runs value through transforms left to right.
//
//	name := sanitizer.Apply(raw, sanitizer.Trim, sanitizer.PersonName)
func Apply[T any](value T, transforms ...func(T) T) T {
	for _, fn := range transforms {
		value = fn(value)
	}
	return value
}

// Compose packages transforms into one reusable func.
func Compose[T any](transforms ...func(T) T) func(T) T {
	return func(value T) T { return Apply(value, transforms...) }
}
