package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rshade/pecunia/internal/cli/pagination"
	"github.com/rshade/pecunia/internal/config"
	"github.com/rshade/pecunia/internal/engine"
	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/tui"
)

// entryJSON is the JSON shape of one durable record.
type entryJSON struct {
	Key        string      `json:"key"`
	Symbol     string      `json:"symbol,omitempty"`
	Attribute  string      `json:"attribute,omitempty"`
	Date       string      `json:"date,omitempty"`
	Value      cache.Value `json:"value"`
	AgeMinutes float64     `json:"age_minutes"`
	Error      string      `json:"error,omitempty"`
}

type entriesJSON struct {
	Entries    []entryJSON     `json:"entries"`
	Pagination pagination.Meta `json:"pagination"`
}

//nolint:gochecknoglobals // lipgloss styles are package-level by convention.
var (
	entriesHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	entriesCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// newEntriesCmd creates the entries command, a scriptable listing of the durable tier.
func newEntriesCmd() *cobra.Command {
	params := pagination.NewParams()

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List cached entries with sorting and paging",
		Example: `  pecunia entries
  pecunia entries --sort age:desc --limit 20
  pecunia entries --sort symbol --offset 100 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if validateErr := params.Validate(); validateErr != nil {
				return validateErr
			}
			field, order, _ := pagination.ParseSort(params.Sort)

			return withSession(cmd.Context(), cmd.ErrOrStderr(), func(ctx context.Context, s *session) error {
				all := pagination.SortEntries(s.cache.Entries(ctx), field, order)
				start, end := params.Window(len(all))
				page := all[start:end]
				if format == config.OutputJSON {
					return writeJSON(cmd.OutOrStdout(), entriesJSON{
						Entries:    toEntriesJSON(page),
						Pagination: pagination.NewMeta(*params, len(all)),
					})
				}
				return renderEntries(cmd.OutOrStdout(), page, len(all))
			})
		},
	}

	cmd.Flags().IntVar(&params.Limit, "limit", pagination.DefaultLimit, "maximum entries to show (0 = all)")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "entries to skip")
	cmd.Flags().StringVar(&params.Sort, "sort", pagination.DefaultSortField,
		"sort as field[:asc|desc]; fields: key, symbol, date, age")
	return cmd
}

func toEntriesJSON(entries []engine.EntryInfo) []entryJSON {
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		j := entryJSON{Key: e.Key, AgeMinutes: e.Age.Minutes()}
		if e.Err != nil || e.Entry == nil {
			j.Error = "error reading"
			if e.Err != nil {
				j.Error = e.Err.Error()
			}
		} else {
			j.Symbol = e.Entry.Symbol
			j.Attribute = e.Entry.Attribute
			j.Date = e.Entry.Date
			j.Value = e.Entry.Value
		}
		out[i] = j
	}
	return out
}

func renderEntries(w io.Writer, entries []engine.EntryInfo, total int) error {
	if total == 0 {
		_, err := fmt.Fprintln(w, "No cached finance data")
		return err
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		row := tui.NewEntryRow(e)
		rows[i] = []string{row.Symbol, row.Attribute, row.Date, row.Value, tui.FormatAge(row.Age)}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SYMBOL", "ATTRIBUTE", "DATE", "VALUE", "AGE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return entriesHeaderStyle
			}
			return entriesCellStyle
		})

	_, err := fmt.Fprintf(w, "%s\n%d of %d entries\n", t.Render(), len(entries), total)
	return err
}
