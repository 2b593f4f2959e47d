// Package quote implements the quote resolution policy: given the raw value a quote source
// produced for a (symbol, attribute, date), decide whether to trust it, substitute the
// cached value, or report it unavailable.
//
// Callers build an explicit Request. QuoteRequest goes through the policy; CommandRequest is
// routed to a CommandHandler. ClassifyLegacy exists for callers that only have the legacy
// positional argument list and must sniff its shape.
package quote
