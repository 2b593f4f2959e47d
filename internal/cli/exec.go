package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/pecunia/internal/command"
	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/quote"
)

const execMaxArgs = 3

// newExecCmd creates the exec command, which runs one cache maintenance command.
func newExecCmd() *cobra.Command {
	var date, value string

	cmd := &cobra.Command{
		Use:   "exec <command> [symbol] [attribute]",
		Short: "Run a cache command (" + strings.Join(command.Names, ", ") + ", ?)",
		Example: `  pecunia exec ?
  pecunia exec SET NYSE:IBM price --value 140.25
  pecunia exec GET NYSE:IBM price --date 2024-01-02
  pecunia exec HISTORY NYSE:IBM price
  pecunia exec REMOVE NYSE:IBM price
  pecunia exec LIST
  pecunia exec TEST`,
		Args: cobra.RangeArgs(1, execMaxArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			req := quote.CommandRequest{Command: args[0], Date: date, Option: value}
			if len(args) > 1 {
				req.Symbol = args[1]
			}
			if len(args) > 2 { //nolint:mnd // third positional argument.
				req.Attribute = args[2]
			}

			return withSession(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s *session) error {
				res := s.resolver.Resolve(ctx, req)
				if format == config.OutputJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]any{
						"command": strings.ToUpper(req.Command),
						"result":  res.Single(),
					})
				}
				_, printErr := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(res.Single().String(), "\n"))
				return printErr
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date for SET/GET, YYYY-MM-DD (default today, UTC)")
	cmd.Flags().StringVar(&value, "value", "", "value for SET")
	return cmd
}
