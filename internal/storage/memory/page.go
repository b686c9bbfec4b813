package memory

import "github.com/vladislavdragonenkov/bookstore/internal/domain"

// pageSlice вырезает страницу из отсортированной выборки.
func pageSlice[T any](items []T, page domain.Page) []T {
	offset := page.Offset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	result := make([]T, end-offset)
	copy(result, items[offset:end])
	return result
}
