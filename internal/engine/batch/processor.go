package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Batch sizing.
const (
	DefaultBatchSize = 100
	MinBatchSize     = 1
	MaxBatchSize     = 1000
)

// Common batch processing errors.
var (
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 1000")
	ErrNilCallback      = errors.New("batch callback cannot be nil")
	ErrEmptyItems       = errors.New("items slice cannot be empty")
)

// BatchCallback processes one batch. offset is the index of batch[0] in the full input.
//
//nolint:revive // BatchCallback is the canonical name for this exported type.
type BatchCallback[T any] func(ctx context.Context, batch []T, offset int) error

// ProgressCallback receives a snapshot after each completed batch.
type ProgressCallback func(snapshot ProgressSnapshot)

// Processor splits items into fixed-size batches.
type Processor[T any] struct {
	batchSize   int
	concurrency int
	onProgress  ProgressCallback
}

// NewProcessor creates a sequential processor with the given batch size.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize, concurrency: 1}, nil
}

// NewProcessorWithDefaults creates a sequential processor with DefaultBatchSize.
func NewProcessorWithDefaults[T any]() *Processor[T] {
	return &Processor[T]{batchSize: DefaultBatchSize, concurrency: 1}
}

// WithConcurrency sets how many batches may run at once. Values below 1 mean 1.
func (p *Processor[T]) WithConcurrency(n int) *Processor[T] {
	p.concurrency = max(n, 1)
	return p
}

// WithProgressCallback sets the progress callback.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor[T]) BatchSize() int {
	return p.batchSize
}

// Process runs callback over every batch. The first error cancels the remaining batches
// and is returned.
func (p *Processor[T]) Process(ctx context.Context, items []T, callback BatchCallback[T]) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	if callback == nil {
		return ErrNilCallback
	}

	bounds := p.Bounds(len(items))
	progress := NewProgress(len(items), len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, b := range bounds {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			batch := items[b[0]:b[1]]
			if err := callback(gctx, batch, b[0]); err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			snapshot := progress.AddProcessed(len(batch))
			if p.onProgress != nil {
				p.onProgress(snapshot)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Bounds returns the [start, end) index pairs of each batch.
func (p *Processor[T]) Bounds(totalItems int) [][2]int {
	n := (totalItems + p.batchSize - 1) / p.batchSize
	bounds := make([][2]int, n)
	for i := range n {
		start := i * p.batchSize
		bounds[i] = [2]int{start, min(start+p.batchSize, totalItems)}
	}
	return bounds
}
