// Package pagination holds the --limit/--offset/--sort handling of the entries listing:
// flag validation, sorting of cache entries and the metadata returned with JSON output.
package pagination
