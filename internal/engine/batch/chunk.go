package batch

// Deduplicate removes repeated items, keeping the first occurrence of each.
// When enabled is false the input is returned unchanged. The returned count is
// the number of items removed.
func Deduplicate[T comparable](items []T, enabled bool) ([]T, int) {
	if !enabled || len(items) < 2 {
		return items, 0
	}

	seen := make(map[T]struct{}, len(items))
	unique := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		unique = append(unique, item)
	}

	return unique, len(items) - len(unique)
}

// Chunk splits items into contiguous batches of at most size items.
// The batches share the backing array of items. Empty input yields no batches.
func Chunk[T any](items []T, size int) [][]T {
	bounds := CalculateBatches(len(items), size)
	batches := make([][]T, len(bounds))
	for i, b := range bounds {
		batches[i] = items[b[0]:b[1]]
	}
	return batches
}

// CalculateBatches returns the batch boundaries for totalItems items.
// Returns a slice of [start, end) index pairs.
func CalculateBatches(totalItems, size int) [][2]int {
	totalBatches := TotalBatches(totalItems, size)
	batches := make([][2]int, totalBatches)

	for i := range totalBatches {
		start := i * size
		end := min(start+size, totalItems)
		batches[i] = [2]int{start, end}
	}

	return batches
}

// TotalBatches calculates the number of batches needed for the given item count.
func TotalBatches(totalItems, size int) int {
	if totalItems <= 0 || size <= 0 {
		return 0
	}
	batches := totalItems / size
	if totalItems%size > 0 {
		batches++
	}
	return batches
}
