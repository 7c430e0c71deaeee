package dashboard

// pageWindowSize is how many numbered page links surround the current page.
const pageWindowSize = 5

type PageWindow struct {
	Visible          bool  `json:"visible"`
	Current          int   `json:"current"`
	TotalPages       int   `json:"total_pages"`
	Pages            []int `json:"pages"`
	ShowFirst        bool  `json:"show_first"`
	LeadingEllipsis  bool  `json:"leading_ellipsis"`
	TrailingEllipsis bool  `json:"trailing_ellipsis"`
	ShowLast         bool  `json:"show_last"`
	HasPrev          bool  `json:"has_prev"`
	HasNext          bool  `json:"has_next"`
}

// NewPageWindow lays out page navigation centered on current. Navigation is
// hidden entirely when there is at most one page.
func NewPageWindow(current, totalPages int) PageWindow {
	w := PageWindow{Current: current, TotalPages: totalPages}
	if totalPages <= 1 {
		return w
	}
	current = ClampPage(current, totalPages)
	w.Current = current
	w.Visible = true
	w.HasPrev = current > 1
	w.HasNext = current < totalPages

	half := pageWindowSize / 2
	start := current - half
	if start < 1 {
		start = 1
	}
	end := start + pageWindowSize - 1
	if end > totalPages {
		end = totalPages
		start = end - pageWindowSize + 1
		if start < 1 {
			start = 1
		}
	}
	for p := start; p <= end; p++ {
		w.Pages = append(w.Pages, p)
	}
	if start > 1 {
		w.ShowFirst = true
		w.LeadingEllipsis = start > 2
	}
	if end < totalPages {
		w.ShowLast = true
		w.TrailingEllipsis = end < totalPages-1
	}
	return w
}
