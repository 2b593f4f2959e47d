package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/quote"
)

// CSV layout: symbol,attributes,candidates,date. Candidates are separated by ';'.
const (
	colSymbol = iota
	colAttributes
	colCandidates
	colDate

	minColumns         = colAttributes + 1
	candidateSeparator = ";"
)

// ErrMalformedRow is wrapped when a CSV record has too few columns.
var ErrMalformedRow = errors.New("malformed quote row")

// Row is one quote request read from CSV. Line is 1-based.
type Row struct {
	Line       int
	Symbol     string
	Attributes string
	Candidates []cache.Value
	Date       string
}

// Request converts the row to a quote request.
func (r Row) Request() quote.QuoteRequest {
	return quote.QuoteRequest{
		Symbol:     r.Symbol,
		Attributes: r.Attributes,
		Candidates: r.Candidates,
		Date:       r.Date,
	}
}

// RowResult pairs a row with its resolution.
type RowResult struct {
	Row    Row
	Result quote.Result
}

// Resolver resolves quote requests.
type Resolver interface {
	Resolve(ctx context.Context, req quote.Request) quote.Result
}

// Options controls ResolveRows. Zero values mean DefaultBatchSize and sequential batches.
type Options struct {
	BatchSize   int
	Concurrency int
	OnProgress  ProgressCallback
}

// ReadRows parses quote rows. A first record whose first field is "symbol" is a header.
// Blank symbol fields are kept; the resolver answers them with an empty value.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading quote rows: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if len(rows) == 0 && strings.EqualFold(strings.TrimSpace(record[colSymbol]), "symbol") {
			continue
		}
		if len(record) < minColumns {
			return nil, fmt.Errorf("%w: line %d has %d columns, need at least %d",
				ErrMalformedRow, line, len(record), minColumns)
		}

		row := Row{
			Line:       line,
			Symbol:     strings.TrimSpace(record[colSymbol]),
			Attributes: strings.TrimSpace(record[colAttributes]),
		}
		if len(record) > colCandidates {
			row.Candidates = parseCandidates(record[colCandidates])
		}
		if len(record) > colDate {
			row.Date = strings.TrimSpace(record[colDate])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCandidates(field string) []cache.Value {
	if strings.TrimSpace(field) == "" {
		return nil
	}
	parts := strings.Split(field, candidateSeparator)
	values := make([]cache.Value, len(parts))
	for i, part := range parts {
		values[i] = cache.ParseValue(part)
	}
	return values
}

// ResolveRows resolves every row and returns results in input order.
func ResolveRows(ctx context.Context, resolver Resolver, rows []Row, opts Options) ([]RowResult, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	size := opts.BatchSize
	if size == 0 {
		size = DefaultBatchSize
	}
	p, err := NewProcessor[Row](size)
	if err != nil {
		return nil, err
	}
	p.WithConcurrency(opts.Concurrency).WithProgressCallback(opts.OnProgress)

	results := make([]RowResult, len(rows))
	err = p.Process(ctx, rows, func(ctx context.Context, batch []Row, offset int) error {
		for i, row := range batch {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			results[offset+i] = RowResult{Row: row, Result: resolver.Resolve(ctx, row.Request())}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
