package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Column widths.
const (
	colWidthSymbol    = 22
	colWidthAttribute = 14
	colWidthDate      = 12
	colWidthValue     = 22
	colWidthAge       = 12
)

func newEntryTable(rows []EntryRow, height int) table.Model {
	columns := []table.Column{
		{Title: "Symbol", Width: colWidthSymbol},
		{Title: "Attribute", Width: colWidthAttribute},
		{Title: "Date", Width: colWidthDate},
		{Title: "Value", Width: colWidthValue},
		{Title: "Age", Width: colWidthAge},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(toTableRows(rows)),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)
	return t
}

func toTableRows(rows []EntryRow) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row{r.Symbol, r.Attribute, r.Date, r.Value, FormatAge(r.Age)}
	}
	return out
}

// View implements tea.Model.
func (m *BrowserModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateLoading:
		return RenderLoading(m.loading)
	case ViewStateDetail:
		if m.history != nil {
			return BoxStyle.Width(m.width - borderPadding).Render(m.history.View())
		}
		return ""
	case ViewStateList:
		return m.renderList()
	case ViewStateError:
		return ErrorStyle.Render("Error reading cache") + "\n"
	default:
		return ""
	}
}

func (m *BrowserModel) renderList() string {
	sections := []string{RenderSummary(m.all, m.width)}

	if len(m.rows) == 0 {
		sections = append(sections, InfoStyle.Render("No cached finance data."))
	} else {
		sections = append(sections, m.table.View())
	}

	sections = append(sections, m.renderStatusBar())
	if m.showFilter {
		sections = append(sections, LabelStyle.Render("Filter: ")+m.filter.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *BrowserModel) renderStatusBar() string {
	parts := []string{
		fmt.Sprintf("%d/%d shown", len(m.rows), len(m.all)),
		"sort: " + m.sortBy.String(),
	}
	if v := m.filter.Value(); v != "" {
		parts = append(parts, fmt.Sprintf("filter: %q", v))
	}
	parts = append(parts, "enter history  / filter  s sort  r refresh  q quit")
	return SubtleStyle.Render(strings.Join(parts, "  |  "))
}

// RenderSummary renders a boxed overview of the cache: entry count, distinct series and
// malformed records.
func RenderSummary(rows []EntryRow, width int) string {
	series := make(map[string]struct{}, len(rows))
	malformed := 0
	for _, r := range rows {
		series[r.Symbol+"\x00"+r.Attribute] = struct{}{}
		if r.Malformed {
			malformed++
		}
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("CACHED FINANCE DATA"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Entries: "))
	b.WriteString(ValueStyle.Render(printer.Sprintf("%d", len(rows))))
	b.WriteString(LabelStyle.Render("    Series: "))
	b.WriteString(ValueStyle.Render(strconv.Itoa(len(series))))
	if malformed > 0 {
		b.WriteString(LabelStyle.Render("    Malformed: "))
		b.WriteString(ErrorStyle.Render(strconv.Itoa(malformed)))
	}
	return BoxStyle.Width(max(width-borderPadding, 0)).Render(b.String())
}
