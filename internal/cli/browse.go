package cli

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/pecunia/internal/tui"
)

// ErrNotTerminal is returned when browse runs without a terminal.
var ErrNotTerminal = errors.New("browse requires an interactive terminal; use 'pecunia entries' instead")

// newBrowseCmd creates the browse command, the interactive cache browser.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse cached entries interactively",
		Long: `Opens a terminal UI over the durable cache tier. Enter shows the history of the
selected series, / filters, s cycles the sort order, r reloads and q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return ErrNotTerminal
			}

			return withSession(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s *session) error {
				model := tui.NewBrowserModel(ctx, s.cache)
				_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
				return err
			})
		},
	}
}
