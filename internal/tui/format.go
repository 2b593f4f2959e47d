package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/pecunia/internal/engine/cache"
)

// maxGroupedMagnitude bounds the values rendered with thousand separators; larger ones
// fall back to the plain representation.
const maxGroupedMagnitude = 1e15

//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatValue renders a cached value for display. Numbers get thousand separators
// ("1,000,000", "1,234.5"); strings are shown as stored.
func FormatValue(v cache.Value) string {
	f, ok := v.Float()
	if !ok {
		return v.String()
	}
	if math.Abs(f) >= maxGroupedMagnitude {
		return v.String()
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	plain := strconv.FormatFloat(f, 'f', -1, 64)
	intPart, fracPart, hasFrac := strings.Cut(plain, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return v.String()
	}

	grouped := printer.Sprintf("%d", n)
	if hasFrac {
		grouped += "." + fracPart
	}
	return sign + grouped
}

// FormatAge renders an entry age in minutes, matching the LIST command.
func FormatAge(d time.Duration) string {
	return fmt.Sprintf("%.1f min", d.Minutes())
}
