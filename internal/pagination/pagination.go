// Package pagination computes page windows over ordered result sets.
package pagination

// Window is the slice of an ordered result set that a page covers.
type Window struct {
	TotalPages int
	Offset     int
	Limit      int
}

// Paginate returns the window for the given 1-based page. A non-positive
// size yields zero pages, and a page below 1 is treated as the first page.
// A page past the end gets Offset == total, so the window is empty however
// large page is.
func Paginate(total, page, size int) Window {
	if size <= 0 {
		return Window{}
	}
	if total < 0 {
		total = 0
	}
	if page < 1 {
		page = 1
	}
	w := Window{
		TotalPages: (total + size - 1) / size,
		Offset:     total,
		Limit:      size,
	}
	// (page-1)*size cannot overflow while page-1 <= total/size.
	if page-1 <= total/size {
		w.Offset = min((page-1)*size, total)
	}
	return w
}

// Slice returns the items the window covers. A window past the end yields
// an empty, non-nil slice.
func Slice[T any](items []T, w Window) []T {
	if w.Limit <= 0 || w.Offset < 0 || w.Offset >= len(items) {
		return []T{}
	}
	end := w.Offset + w.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[w.Offset:end]
}
