// Package logging provides zerolog construction, component loggers, and per-invocation
// trace IDs for pecunia.
//
// Loggers travel in the context: the CLI attaches one with zerolog's WithContext and
// library code retrieves it with FromContext. Any event logged with .Ctx(ctx) carries the
// trace_id stored by ContextWithTraceID.
package logging
