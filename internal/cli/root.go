package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger = zerolog.Nop() //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root command for the pecunia CLI.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:   "pecunia",
		Short: "Two-tier cache for spreadsheet finance quotes",
		Long: `pecunia resolves finance quotes through a two-tier cache: a short-lived in-memory
tier in front of a durable file or Redis tier. Trusted quotes are cached; loading or
unavailable quotes are answered from the cache when a prior value exists.`,
		Version:      ver,
		Example:      rootCmdExample,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default $PECUNIA_CONFIG or ~/.pecunia/config.yaml)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: text or json (default from config)")
	cmd.AddCommand(
		newQuoteCmd(), newHistoricalCmd(), newExecCmd(), newBatchCmd(),
		newEntriesCmd(), newImportCmd(), newBrowseCmd(), newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Resolve a quote, caching the trusted value
  pecunia quote NASDAQ:GOOGL price 150.50

  # Source is still loading: answer from the cache
  pecunia quote NASDAQ:GOOGL price "Loading..."

  # Several attributes at once
  pecunia quote NASDAQ:GOOGL price,volume,name 150.50 1000000

  # Maintenance commands
  pecunia exec HISTORY NASDAQ:GOOGL price
  pecunia exec SET NYSE:IBM price --value 140.25
  pecunia exec EXPIRECACHE

  # Resolve a CSV file of quotes with 4 workers
  pecunia batch quotes.csv --concurrency 4

  # Browse the cache interactively
  pecunia browse`

// loadConfig reads the file named by --config (or the default path) and installs it as
// the global configuration.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd(), newConfigValidateCmd())
	return cmd
}
