package shared

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Built-in page size bounds for cursor listings
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	pageSizeDefault atomic.Int64
	pageSizeMax     atomic.Int64
)

func init() {
	pageSizeDefault.Store(DefaultPageSize)
	pageSizeMax.Store(MaxPageSize)
}

// ConfigurePageSize replaces the listing bounds. Non-positive values and a
// default above the maximum are ignored.
func ConfigurePageSize(defaultSize, maxSize int) {
	if defaultSize <= 0 || maxSize <= 0 || defaultSize > maxSize {
		return
	}
	pageSizeDefault.Store(int64(defaultSize))
	pageSizeMax.Store(int64(maxSize))
}

// CursorFilter selects one page of a keyset-paginated listing.
// Cursor is the id of the last row of the previous page.
type CursorFilter struct {
	Cursor *uuid.UUID
	Limit  int
}

// NormalizedLimit clamps Limit into [1, max], defaulting to the configured
// page size
func (f CursorFilter) NormalizedLimit() int {
	maxSize := int(pageSizeMax.Load())
	switch {
	case f.Limit <= 0:
		return int(pageSizeDefault.Load())
	case f.Limit > maxSize:
		return maxSize
	default:
		return f.Limit
	}
}

// CursorPage is one page of a keyset-paginated listing
type CursorPage[T any] struct {
	Items      []T
	Limit      int
	HasMore    bool
	NextCursor *uuid.UUID
}

// NewCursorPage builds a page from rows fetched with limit+1.
// The extra row only signals that more rows exist and is dropped.
func NewCursorPage[T any](rows []T, limit int, idOf func(T) uuid.UUID) CursorPage[T] {
	page := CursorPage[T]{Limit: limit}
	if len(rows) > limit {
		page.HasMore = true
		rows = rows[:limit]
	}
	page.Items = rows
	if page.HasMore && len(rows) > 0 {
		next := idOf(rows[len(rows)-1])
		page.NextCursor = &next
	}
	return page
}

// MapCursorPage converts the items of a page while keeping the cursor metadata
func MapCursorPage[T, U any](p CursorPage[T], fn func(T) U) CursorPage[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return CursorPage[U]{Items: items, Limit: p.Limit, HasMore: p.HasMore, NextCursor: p.NextCursor}
}
