package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/pecunia/internal/config"
)

// newConfigInitCmd creates the config init command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a configuration file with default values at the --config path (default
~/.pecunia/config.yaml) and a .gitignore next to it so cached quote data and logs are not
committed with the configuration.`,
		Example: `  pecunia config init
  pecunia config init --force
  pecunia --config ./pecunia.yaml config init`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			path := cfg.ConfigPath()

			if !force {
				_, err := os.Stat(path)
				if err == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(err) {
					return fmt.Errorf("cannot access config path %s: %w", path, err)
				}
			}

			defaults := config.Default()
			defaults.SetConfigPath(path)
			if err := defaults.Save(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			dir := filepath.Dir(path)
			cacheFile := ""
			if f := cfg.Cache.File; f != "" && filepath.Dir(f) == dir {
				cacheFile = filepath.Base(f)
			}
			added, err := config.EnsureGitignore(dir, config.GitignorePatterns(cacheFile))
			if err != nil {
				return fmt.Errorf("failed to update .gitignore: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration initialized at %s\n", path)
			if len(added) > 0 {
				fmt.Fprintf(out, "Added %s to %s\n", strings.Join(added, ", "), filepath.Join(dir, ".gitignore"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	return cmd
}

// newConfigShowCmd creates the config show command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Prints the configuration after defaults, the config file and environment overrides are applied.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(config.GetGlobalConfig())
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}
			if format != config.OutputJSON {
				_, printErr := fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", config.GetGlobalConfig().ConfigPath(), data)
				return printErr
			}

			var generic map[string]any
			if unmarshalErr := yaml.Unmarshal(data, &generic); unmarshalErr != nil {
				return fmt.Errorf("converting config: %w", unmarshalErr)
			}
			return writeJSON(cmd.OutOrStdout(), generic)
		},
	}
}

// newConfigValidateCmd creates the config validate command.
func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.GetGlobalConfig().Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}
}
