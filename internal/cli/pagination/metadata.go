package pagination

// Meta describes the returned page.
type Meta struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	Returned   int  `json:"returned"`
	TotalItems int  `json:"total_items"`
	HasNext    bool `json:"has_next"`
}

// NewMeta builds the metadata for a page cut from total items.
func NewMeta(p Params, total int) Meta {
	start, end := p.Window(total)
	return Meta{
		Offset:     start,
		Limit:      p.Limit,
		Returned:   end - start,
		TotalItems: total,
		HasNext:    end < total,
	}
}
