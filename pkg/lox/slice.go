package lox

// MapUniqErr maps a slice, dropping repeated results while keeping the first
// occurrence order. It stops at the first error.
func MapUniqErr[T any, R comparable](collection []T, iteratee func(item T) (R, error)) ([]R, error) {
	result := make([]R, 0, len(collection))
	seen := make(map[R]struct{}, len(collection))

	for _, item := range collection {
		r, err := iteratee(item)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[r]; ok {
			continue
		}

		seen[r] = struct{}{}
		result = append(result, r)
	}

	return result, nil
}

// Window returns up to size items starting at start, wrapping around the end
// of the collection. Each item appears at most once.
func Window[T any](collection []T, start, size int) []T {
	n := len(collection)
	if n == 0 || size <= 0 {
		return nil
	}

	size = min(size, n)
	start = ((start % n) + n) % n

	out := make([]T, 0, size)
	for i := range size {
		out = append(out, collection[(start+i)%n])
	}

	return out
}
