package collections

// Apply applies the applicator function to each item in the input slice.
func Apply[T, V any](items []T, applicator func(T) V) []V {
	result := make([]V, len(items))
	for i, item := range items {
		result[i] = applicator(item)
	}
	return result
}

// TryApply is Apply for fallible applicators. It stops at the first error.
func TryApply[T, V any](items []T, applicator func(T) (V, error)) ([]V, error) {
	result := make([]V, len(items))
	for i, item := range items {
		v, err := applicator(item)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// Filter returns the items for which keep returns true.
func Filter[T any](items []T, keep func(T) bool) []T {
	var result []T
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}

// Find returns the first item for which match returns true.
func Find[T any](items []T, match func(T) bool) (T, bool) {
	for _, item := range items {
		if match(item) {
			return item, true
		}
	}

	var zero T
	return zero, false
}
