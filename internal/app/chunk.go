package app

import "reviewpulse/internal/domain"

// Chunk splits items into consecutive batches of at most size elements.
// Batches are capped views of items; appending to one never touches the next.
func Chunk[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, domain.Invalid("size", "must be positive")
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		out = append(out, items[i:end:end])
	}
	return out, nil
}
