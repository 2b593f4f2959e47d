package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/quote"
)

const quoteFixedArgs = 2

// newQuoteCmd creates the quote command.
func newQuoteCmd() *cobra.Command {
	var date, option string

	cmd := &cobra.Command{
		Use:   "quote <symbol> <attributes> [candidate...]",
		Short: "Resolve a quote through the cache",
		Long: `Resolves one or more attributes of a symbol. Each candidate is the raw value the
quote source returned for the attribute at the same position. Trusted candidates are
cached and returned; "Loading...", "#N/A", "#ERROR!" and missing candidates are answered
from the cache when a prior value exists.

A single all-caps candidate (SET, GET, HISTORY, ?) or a non-empty --option runs the
matching cache command instead, the way the spreadsheet function does.`,
		Example: `  pecunia quote NASDAQ:GOOGL price 150.50
  pecunia quote NASDAQ:GOOGL price,volume,name 150.50 1000000
  pecunia quote NASDAQ:GOOGL price "#N/A" --date 2024-01-02
  pecunia quote NYSE:IBM price SET --option 140.25`,
		Args: cobra.MinimumNArgs(quoteFixedArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			raw := args[quoteFixedArgs:]
			candidates := make([]cache.Value, len(raw))
			for i, r := range raw {
				candidates[i] = cache.ParseValue(r)
			}
			req := quote.ClassifyLegacy(args[0], args[1], candidates, date, option)

			return withSession(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s *session) error {
				res := s.resolver.Resolve(ctx, req)
				return renderResult(cmd.OutOrStdout(), format, res)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "trading date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().StringVar(&option, "option", "", "command option; a non-empty value makes the call a command")
	return cmd
}
