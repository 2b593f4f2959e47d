package pagination

import (
	"errors"
	"fmt"
	"strings"
)

// Limits and defaults.
const (
	DefaultLimit     = 100
	MaxLimit         = 10000
	DefaultSortField = FieldKey
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"

	sortPartsMax = 2
)

// Validation errors.
var (
	ErrInvalidLimit      = fmt.Errorf("limit must be between 0 and %d", MaxLimit)
	ErrInvalidOffset     = errors.New("offset must be non-negative")
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'age:desc')")
	ErrInvalidSortField  = errors.New("invalid sort field")
)

// Params holds the listing flags. Limit 0 means no limit.
type Params struct {
	Limit  int
	Offset int
	Sort   string
}

// NewParams returns the defaults.
func NewParams() *Params {
	return &Params{Limit: DefaultLimit, Sort: DefaultSortField}
}

// Validate checks bounds and the sort expression.
func (p Params) Validate() error {
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidOffset, p.Offset)
	}
	field, _, err := ParseSort(p.Sort)
	if err != nil {
		return err
	}
	if !IsValidField(field) {
		return fmt.Errorf("%w: %q (valid: %s)", ErrInvalidSortField, field, strings.Join(ValidFields(), ", "))
	}
	return nil
}

// ParseSort splits "field" or "field:order". An empty expression means the default field
// in ascending order.
//
//nolint:nonamedreturns // Named returns document the pair.
func ParseSort(expr string) (field, order string, err error) {
	if strings.TrimSpace(expr) == "" {
		return DefaultSortField, SortOrderAsc, nil
	}

	parts := strings.Split(expr, ":")
	if len(parts) > sortPartsMax {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, expr)
	}
	field = strings.TrimSpace(parts[0])
	if field == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, expr)
	}
	order = SortOrderAsc
	if len(parts) == sortPartsMax {
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	}
	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}
	return field, order, nil
}

// Window returns the [start, end) slice bounds for total items.
func (p Params) Window(total int) (int, int) {
	start := min(p.Offset, total)
	end := total
	if p.Limit > 0 {
		end = min(start+p.Limit, total)
	}
	return start, end
}
