// Package pagination computes the bounded set of page markers shown under a
// paginated list: a block of consecutive pages around the current page, with
// the first and last pages pinned and ellipses marking skipped ranges.
package pagination

import "strconv"

// Kind identifies what a Marker renders as.
type Kind int

const (
	// KindPage is a numbered page inside the sliding block.
	KindPage Kind = iota
	// KindFirst is page 1 pinned ahead of the block.
	KindFirst
	// KindLast is the last page pinned after the block.
	KindLast
	// KindEllipsis is a non-interactive gap marker.
	KindEllipsis
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindFirst:
		return "first"
	case KindLast:
		return "last"
	case KindEllipsis:
		return "ellipsis"
	default:
		return "unknown"
	}
}

// Marker is one entry of a page window. Page is zero for ellipses.
type Marker struct {
	Kind Kind
	Page int
}

// IsPage reports whether the marker navigates to a page.
func (m Marker) IsPage() bool {
	return m.Kind != KindEllipsis
}

// Label returns the marker's display text.
func (m Marker) Label() string {
	if m.Kind == KindEllipsis {
		return "…"
	}
	return strconv.Itoa(m.Page)
}

// Window returns the markers for currentPage out of totalPages, showing at most
// windowSize consecutive numbered pages around the current one.
//
// The block is centred on currentPage and clamped to [1, totalPages]. When the
// block starts after page 1, page 1 is prepended, followed by an ellipsis if
// pages are skipped. The end is handled symmetrically with the last page.
// totalPages <= 0 yields an empty window. A windowSize below 1 is treated as 1.
func Window(currentPage, totalPages, windowSize int) []Marker {
	if totalPages <= 0 {
		return []Marker{}
	}
	if windowSize < 1 {
		windowSize = 1
	}
	currentPage = min(max(currentPage, 1), totalPages)

	start := max(1, currentPage-windowSize/2)
	end := min(totalPages, start+windowSize-1)
	if end-start+1 < windowSize {
		start = max(1, end-windowSize+1)
	}

	markers := make([]Marker, 0, end-start+5)

	if start > 1 {
		markers = append(markers, Marker{Kind: KindFirst, Page: 1})
		if start > 2 {
			markers = append(markers, Marker{Kind: KindEllipsis})
		}
	}

	for p := start; p <= end; p++ {
		markers = append(markers, Marker{Kind: KindPage, Page: p})
	}

	if end < totalPages {
		if end < totalPages-1 {
			markers = append(markers, Marker{Kind: KindEllipsis})
		}
		markers = append(markers, Marker{Kind: KindLast, Page: totalPages})
	}

	return markers
}

// Range returns the 1-based indexes of the first and last record shown on
// page, for a "Showing X to Y of Z" line. Both are zero when total is zero.
func Range(page, pageSize, total int) (from, to int) {
	if total <= 0 || pageSize <= 0 || page < 1 {
		return 0, 0
	}
	from = min((page-1)*pageSize+1, total)
	to = min(page*pageSize, total)
	return from, to
}

// TotalPages is ceil(total / pageSize). Zero means there is no data.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
