package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/engine/batch"
	"github.com/rshade/pecunia/internal/engine/cache"
)

const defaultBatchConcurrency = 4

// batchRowJSON is the JSON shape of one resolved row.
type batchRowJSON struct {
	Line       int           `json:"line"`
	Symbol     string        `json:"symbol"`
	Attributes string        `json:"attributes"`
	Date       string        `json:"date,omitempty"`
	Values     []cache.Value `json:"values"`
}

// newBatchCmd creates the batch command.
func newBatchCmd() *cobra.Command {
	var (
		batchSize   int
		concurrency int
		progress    bool
	)

	cmd := &cobra.Command{
		Use:   "batch <file.csv|->",
		Short: "Resolve a CSV file of quote requests",
		Long: `Resolves every row of a CSV file. Columns are symbol, attributes, candidates and an
optional date; candidates are separated by ';' and attributes by ','. A first row starting
with "symbol" is treated as a header and lines starting with '#' are ignored. Use - to read
from stdin. Results are printed in input order.`,
		Example: `  pecunia batch quotes.csv
  pecunia batch quotes.csv --concurrency 8 --batch-size 50 --progress
  cat quotes.csv | pecunia batch - --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			rows, err := readBatchRows(cmd, args[0])
			if err != nil {
				return err
			}
			logger.Debug().Ctx(cmd.Context()).Int("rows", len(rows)).Msg("batch rows loaded")

			opts := batch.Options{BatchSize: batchSize, Concurrency: concurrency}
			if progress {
				opts.OnProgress = progressPrinter(cmd.ErrOrStderr())
			}

			return withSession(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s *session) error {
				results, resolveErr := batch.ResolveRows(ctx, s.resolver, rows, opts)
				if resolveErr != nil {
					return fmt.Errorf("resolving batch: %w", resolveErr)
				}
				return renderBatch(cmd.OutOrStdout(), format, results)
			})
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", batch.DefaultBatchSize, "rows per batch")
	cmd.Flags().IntVar(&concurrency, "concurrency", defaultBatchConcurrency, "batches resolved in parallel")
	cmd.Flags().BoolVar(&progress, "progress", false, "report progress on stderr")
	return cmd
}

func readBatchRows(cmd *cobra.Command, path string) ([]batch.Row, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	rows, err := batch.ReadRows(r)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// progressPrinter serializes progress lines from concurrent batches.
func progressPrinter(w io.Writer) batch.ProgressCallback {
	var mu sync.Mutex
	return func(s batch.ProgressSnapshot) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(w, "resolved %d/%d rows (%.0f%%) in %s\n",
			s.ProcessedItems, s.TotalItems, s.PercentComplete, cache.FormatDuration(s.Elapsed))
	}
}

func renderBatch(w io.Writer, format string, results []batch.RowResult) error {
	if format == config.OutputJSON {
		out := make([]batchRowJSON, len(results))
		for i, r := range results {
			out[i] = batchRowJSON{
				Line:       r.Row.Line,
				Symbol:     r.Row.Symbol,
				Attributes: r.Row.Attributes,
				Date:       r.Row.Date,
				Values:     r.Result.Values,
			}
		}
		return writeJSON(w, out)
	}

	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n",
			r.Row.Symbol, r.Row.Attributes, strings.Join(r.Result.Strings(), "\t")); err != nil {
			return err
		}
	}
	return nil
}
