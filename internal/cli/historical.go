package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/quote"
)

// errDateRequired is returned when historical is called without --date.
var errDateRequired = errors.New("--date is required")

// newHistoricalCmd creates the historical command, a read-only dated lookup.
func newHistoricalCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "historical <symbol> <attribute>",
		Short: "Look up the cached value for a past date",
		Long: `Reads the value cached for a symbol and attribute on an explicit date, without a
quote candidate and without writing anything. A missing value prints
"#N/A (no data for <date>)".`,
		Example: `  pecunia historical NASDAQ:GOOGL price --date 2024-01-02`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if date == "" {
				return errDateRequired
			}

			return withSession(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s *session) error {
				value := s.cache.HistoricalValue(ctx, args[0], args[1], date)
				return renderResult(cmd.OutOrStdout(), format, quote.Result{Values: []cache.Value{value}})
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "trading date YYYY-MM-DD")
	return cmd
}
