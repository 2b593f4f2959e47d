package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/migration"
)

type importJSON struct {
	Imported    int      `json:"imported"`
	Overwritten int      `json:"overwritten"`
	Skipped     int      `json:"skipped"`
	Malformed   []string `json:"malformed"`
	DryRun      bool     `json:"dry_run"`
}

// newImportCmd creates the import command, which loads a properties export into the
// durable tier.
func newImportCmd() *cobra.Command {
	var opts migration.Options
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import finance records from a properties export",
		Long: `Import finance records into the durable cache.

The file is either a flat JSON object of property key to stored text, or a file-backend
document (schema_version and properties). Keys outside the finance namespace are skipped
and records that cannot be decoded are reported, not copied. Existing records are kept
unless --overwrite is given or the prompt is confirmed.`,
		Example: `  pecunia import properties-export.json --dry-run
  pecunia import ~/.pecunia/properties.json --overwrite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			props, err := migration.ReadExportFile(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s *session) error {
				if !opts.Overwrite && !opts.DryRun {
					confirmOverwrite(ctx, cmd, props, s, yes, &opts)
				}

				report, importErr := migration.Import(ctx, props, s.durable, opts)
				if importErr != nil {
					return importErr
				}
				logger.Info().Ctx(ctx).
					Str("source", args[0]).
					Int("imported", report.Imported).
					Int("malformed", len(report.Malformed)).
					Bool("dry_run", opts.DryRun).
					Msg("import finished")

				if format == config.OutputJSON {
					malformed := report.Malformed
					if malformed == nil {
						malformed = []string{}
					}
					return writeJSON(cmd.OutOrStdout(), importJSON{
						Imported:    report.Imported,
						Overwritten: report.Overwritten,
						Skipped:     report.Skipped,
						Malformed:   malformed,
						DryRun:      opts.DryRun,
					})
				}

				out := cmd.OutOrStdout()
				verb := "Imported"
				if opts.DryRun {
					verb = "Would import"
				}
				fmt.Fprintf(out, "%s %d records (%d overwritten, %d skipped, %d malformed)\n",
					verb, report.Imported, report.Overwritten, report.Skipped, len(report.Malformed))
				for _, key := range report.Malformed {
					fmt.Fprintf(out, "  malformed: %s\n", key)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate and count without writing")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace records already in the cache")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "overwrite existing records without prompting")

	return cmd
}

// confirmOverwrite turns on overwriting when conflicting records exist and the user
// agrees. Without a terminal on stdin existing records are kept.
func confirmOverwrite(
	ctx context.Context,
	cmd *cobra.Command,
	props map[string]string,
	s *session,
	yes bool,
	opts *migration.Options,
) {
	conflicts, err := migration.Conflicts(ctx, props, s.durable)
	if err != nil || len(conflicts) == 0 {
		return
	}
	if yes {
		opts.Overwrite = true
		return
	}
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !isTerminal(in) {
		return
	}
	question := fmt.Sprintf("%d records already cached. Overwrite them?", len(conflicts))
	opts.Overwrite = migration.Confirm(cmd.OutOrStdout(), in, question)
}
