package pagination

import (
	"cmp"
	"slices"

	"github.com/rshade/pecunia/internal/engine"
)

// Sort fields.
const (
	FieldKey    = "key"
	FieldSymbol = "symbol"
	FieldDate   = "date"
	FieldAge    = "age"
)

// ValidFields lists the accepted sort fields.
func ValidFields() []string {
	return []string{FieldAge, FieldDate, FieldKey, FieldSymbol}
}

// IsValidField reports whether field can be sorted on.
func IsValidField(field string) bool {
	return slices.Contains(ValidFields(), field)
}

// SortEntries returns a sorted copy of entries. Malformed entries sort by key only;
// ties fall back to key order. An unknown field returns the input order.
func SortEntries(entries []engine.EntryInfo, field, order string) []engine.EntryInfo {
	sorted := slices.Clone(entries)
	if !IsValidField(field) {
		return sorted
	}

	slices.SortStableFunc(sorted, func(a, b engine.EntryInfo) int {
		c := compareField(a, b, field)
		if c == 0 {
			c = cmp.Compare(a.Key, b.Key)
		}
		if order == SortOrderDesc {
			return -c
		}
		return c
	})
	return sorted
}

func compareField(a, b engine.EntryInfo, field string) int {
	switch field {
	case FieldAge:
		return cmp.Compare(a.Age, b.Age)
	case FieldSymbol:
		return cmp.Compare(symbolOf(a), symbolOf(b))
	case FieldDate:
		return cmp.Compare(dateOf(a), dateOf(b))
	default:
		return 0
	}
}

func symbolOf(e engine.EntryInfo) string {
	if e.Entry == nil {
		return ""
	}
	return e.Entry.Symbol
}

func dateOf(e engine.EntryInfo) string {
	if e.Entry == nil {
		return ""
	}
	return e.Entry.Date
}
