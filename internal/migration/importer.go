// Package migration imports finance records from a properties export into a durable
// cache store. Two source shapes are accepted: a flat JSON object of key to stored text
// (a script-properties export) and the file store's own document with schema_version and
// properties, which lets records move between backends.
package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rshade/pecunia/internal/engine/cache"
)

// ErrInvalidExport is returned when the source is not a JSON object of strings.
var ErrInvalidExport = errors.New("invalid properties export")

// Report counts what an import did.
type Report struct {
	Imported    int
	Overwritten int
	Skipped     int
	Malformed   []string
}

// Options controls Import.
type Options struct {
	// DryRun validates and counts without writing.
	DryRun bool
	// Overwrite replaces records already present in the destination.
	Overwrite bool
}

// ReadExport decodes either export shape into a key to stored-text map.
func ReadExport(r io.Reader) (map[string]string, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExport, err)
	}

	if raw, ok := doc["properties"]; ok {
		if _, versioned := doc["schema_version"]; versioned {
			var props map[string]string
			if err := json.Unmarshal(raw, &props); err != nil {
				return nil, fmt.Errorf("%w: properties: %w", ErrInvalidExport, err)
			}
			return props, nil
		}
	}

	props := make(map[string]string, len(doc))
	for key, raw := range doc {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("%w: value of %q is not a string", ErrInvalidExport, key)
		}
		props[key] = value
	}
	return props, nil
}

// ReadExportFile reads an export from path.
func ReadExportFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()
	return ReadExport(f)
}

// canonicalKey decodes raw and returns the key reads use for it. Exports written without
// component escaping ("finance_BRK_B_price_<date>") are re-keyed from the record's own
// symbol, attribute and date.
func canonicalKey(raw string) (string, bool) {
	entry, err := cache.DecodeCacheEntry(raw)
	if err != nil || entry.Symbol == "" || entry.Attribute == "" || entry.Date == "" {
		return "", false
	}
	return cache.MakeKey(entry.Symbol, entry.Attribute, entry.Date), true
}

// Conflicts returns the canonical keys of importable records in props that already exist
// in dst, sorted.
func Conflicts(ctx context.Context, props map[string]string, dst cache.Store) ([]string, error) {
	existing, err := dst.Keys(ctx, cache.KeyNamespace)
	if err != nil {
		return nil, fmt.Errorf("listing destination keys: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, key := range existing {
		present[key] = true
	}

	var conflicts []string
	seen := make(map[string]bool)
	for key, raw := range props {
		if !cache.IsFinanceKey(key) {
			continue
		}
		target, ok := canonicalKey(raw)
		if !ok || !present[target] || seen[target] {
			continue
		}
		seen[target] = true
		conflicts = append(conflicts, target)
	}
	sort.Strings(conflicts)
	return conflicts, nil
}

// Import copies finance records from props into dst under their canonical keys. Keys
// outside the finance namespace are skipped; records that do not decode, or lack the
// symbol, attribute or date needed to key them, are reported as malformed and not copied.
func Import(ctx context.Context, props map[string]string, dst cache.Store, opts Options) (Report, error) {
	var report Report

	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !cache.IsFinanceKey(key) {
			report.Skipped++
			continue
		}
		raw := props[key]
		target, ok := canonicalKey(raw)
		if !ok {
			report.Malformed = append(report.Malformed, key)
			continue
		}

		_, getErr := dst.Get(ctx, target)
		exists := getErr == nil
		if getErr != nil && !errors.Is(getErr, cache.ErrCacheNotFound) {
			return report, fmt.Errorf("checking %s: %w", target, getErr)
		}
		if exists && !opts.Overwrite {
			report.Skipped++
			continue
		}

		if !opts.DryRun {
			if err := dst.Put(ctx, target, raw, 0); err != nil {
				return report, fmt.Errorf("writing %s: %w", target, err)
			}
		}
		if exists {
			report.Overwritten++
		}
		report.Imported++
	}
	return report, nil
}

// Confirm asks a yes/no question on out and reads the answer from in. Anything other
// than "y" or "yes" is a no, including unreadable input.
func Confirm(out io.Writer, in io.Reader, question string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N] ", question)

	var response string
	if _, err := fmt.Fscanln(in, &response); err != nil {
		response = ""
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
