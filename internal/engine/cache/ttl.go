package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL configuration constants and defaults.
const (
	// DefaultFastTTL is how long the fast tier keeps a written or promoted entry (6 hours).
	DefaultFastTTL = 6 * time.Hour

	// DefaultStalenessWindow is the age past which a latest-entry lookup purges an entry.
	DefaultStalenessWindow = 24 * time.Hour

	// DefaultExpireAfter is the EXPIRECACHE threshold.
	DefaultExpireAfter = 24 * time.Hour

	// DefaultFastMaxEntries bounds the fast tier.
	DefaultFastMaxEntries = 5000

	// DefaultCleanupInterval is how often the fast tier purges expired entries.
	DefaultCleanupInterval = 10 * time.Minute

	// MinTTL is the minimum accepted duration for TTL settings (1 second).
	MinTTL = time.Second

	// MaxTTL is the maximum accepted duration for TTL settings (30 days).
	MaxTTL = 30 * 24 * time.Hour

	// minutesPerHour is used for duration formatting calculations.
	minutesPerHour = 60

	// hoursPerDay is used for duration formatting calculations.
	hoursPerDay = 24

	// EnvFastTTL overrides the fast tier TTL.
	EnvFastTTL = "PECUNIA_FAST_TTL"

	// EnvFastMaxEntries overrides the fast tier capacity.
	EnvFastMaxEntries = "PECUNIA_FAST_MAX_ENTRIES"
)

// TTL validation errors.
var (
	ErrInvalidTTL = fmt.Errorf("TTL must be between %s and %s", MinTTL, MaxTTL)
)

// GetFastTTLFromEnv reads the fast tier TTL from the environment or returns fallback.
// Invalid values fall back silently.
func GetFastTTLFromEnv(fallback time.Duration) time.Duration {
	envVal := os.Getenv(EnvFastTTL)
	if envVal == "" {
		return fallback
	}
	ttl, err := ParseTTL(envVal)
	if err != nil {
		return fallback
	}
	return ttl
}

// GetFastMaxEntriesFromEnv reads the fast tier capacity or returns fallback.
// Zero means unbounded; negative values are invalid.
func GetFastMaxEntriesFromEnv(fallback int) int {
	envVal := os.Getenv(EnvFastMaxEntries)
	if envVal == "" {
		return fallback
	}
	n, err := strconv.Atoi(envVal)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// FormatDuration formats a duration in a human-readable way.
// Examples: "1h", "30m", "5m30s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

// ParseTTL parses a TTL string in various formats:
// - Integer seconds: "21600".
// - Duration string: "6h", "30m", "1h30m".
func ParseTTL(s string) (time.Duration, error) {
	var d time.Duration
	if seconds, err := strconv.Atoi(s); err == nil {
		d = time.Duration(seconds) * time.Second
	} else {
		parsed, parseErr := time.ParseDuration(s)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", parseErr)
		}
		d = parsed
	}

	if d < MinTTL || d > MaxTTL {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}
	return d, nil
}
