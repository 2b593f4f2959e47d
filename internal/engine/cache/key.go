package cache

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeyNamespace prefixes every finance key so the durable tier can hold unrelated keys.
const KeyNamespace = "finance_"

// keySeparator joins symbol, attribute and date inside a key.
const keySeparator = "_"

// Component escaping keeps the separator out of normalized values.
// '%' is escaped first so escaped output never contains a bare separator.
//
//nolint:gochecknoglobals // Replacers are immutable and safe for concurrent use.
var (
	componentEscaper   = strings.NewReplacer("%", "%25", keySeparator, "%5F")
	componentUnescaper = strings.NewReplacer("%25", "%", "%5F", keySeparator)
)

// NormalizeSymbol trims and applies full Unicode uppercase mapping ("ß" becomes "SS").
func NormalizeSymbol(symbol string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(symbol))
}

// NormalizeAttribute trims and applies Unicode lowercase mapping.
func NormalizeAttribute(attribute string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(attribute))
}

// MakeKey derives the canonical key for a dated entry:
// finance_<SYMBOL>_<attribute>_<date>.
func MakeKey(symbol, attribute, date string) string {
	return KeyPrefix(symbol, attribute) + componentEscaper.Replace(date)
}

// KeyPrefix is MakeKey without the date, used for prefix scans over a series.
func KeyPrefix(symbol, attribute string) string {
	return KeyNamespace +
		componentEscaper.Replace(NormalizeSymbol(symbol)) + keySeparator +
		componentEscaper.Replace(NormalizeAttribute(attribute)) + keySeparator
}

// IsFinanceKey reports whether key belongs to the finance namespace.
func IsFinanceKey(key string) bool {
	return strings.HasPrefix(key, KeyNamespace)
}

// ParseKey splits a finance key back into its normalized components.
// It returns ok=false for keys outside the namespace or with the wrong shape.
func ParseKey(key string) (symbol, attribute, date string, ok bool) {
	if !IsFinanceKey(key) {
		return "", "", "", false
	}
	const keyParts = 3
	parts := strings.Split(strings.TrimPrefix(key, KeyNamespace), keySeparator)
	if len(parts) != keyParts {
		return "", "", "", false
	}
	return componentUnescaper.Replace(parts[0]),
		componentUnescaper.Replace(parts[1]),
		componentUnescaper.Replace(parts[2]),
		true
}
