package searchspec

// Page is one page of search results.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

func NewPage[T any](content []T, totalElements int64, size int) *Page[T] {
	if content == nil {
		content = []T{}
	}
	return &Page[T]{
		Content:       content,
		TotalElements: totalElements,
		TotalPages:    TotalPages(totalElements, size),
	}
}
