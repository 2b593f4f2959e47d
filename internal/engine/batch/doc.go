// Package batch resolves many quote requests in fixed-size batches.
//
// Rows come from a CSV file (symbol, attributes, candidates, date). Each batch is resolved
// through a quote.Resolver; batches may run concurrently, bounded by an errgroup limit.
// Results keep input order regardless of concurrency.
package batch
