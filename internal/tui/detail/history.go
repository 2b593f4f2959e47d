package detail

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/pecunia/internal/engine"
	listview "github.com/rshade/pecunia/internal/tui/list"
)

// HistoryFunc returns the dated entries of one series, newest first.
type HistoryFunc func(ctx context.Context, symbol, attribute string) []engine.HistoryPoint

// FormatFunc renders a history point's value.
type FormatFunc func(p engine.HistoryPoint) string

// State of the pane.
type State int

// Pane states.
const (
	StateLoading State = iota
	StateLoaded
)

// LoadedMsg carries a finished history load. seq discards results of superseded loads.
type LoadedMsg struct {
	seq    int
	Points []engine.HistoryPoint
}

//nolint:gochecknoglobals // lipgloss styles are package-level by convention.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the history pane for one symbol/attribute series.
type Model struct {
	Symbol    string
	Attribute string

	ctx    context.Context
	fetch  HistoryFunc
	format FormatFunc
	state  State
	seq    int
	height int
	list   *listview.Model[engine.HistoryPoint]
	points []engine.HistoryPoint
}

// New creates a pane in the loading state. Call Load to fetch the data.
func New(ctx context.Context, symbol, attribute string, fetch HistoryFunc, format FormatFunc, height int) *Model {
	m := &Model{
		Symbol:    symbol,
		Attribute: attribute,
		ctx:       ctx,
		fetch:     fetch,
		format:    format,
		height:    height,
	}
	return m
}

// Load starts (or restarts) the history fetch.
func (m *Model) Load() tea.Cmd {
	m.seq++
	m.state = StateLoading
	seq, ctx, symbol, attribute := m.seq, m.ctx, m.Symbol, m.Attribute
	fetch := m.fetch
	return func() tea.Msg {
		return LoadedMsg{seq: seq, Points: fetch(ctx, symbol, attribute)}
	}
}

// State reports whether the pane is still loading.
func (m *Model) State() State {
	return m.state
}

// Points returns the loaded history.
func (m *Model) Points() []engine.HistoryPoint {
	return m.points
}

// SetHeight resizes the list viewport.
func (m *Model) SetHeight(height int) {
	m.height = height
	if m.list != nil {
		m.list.SetHeight(height)
	}
}

// Update handles load results, reload and navigation keys.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.seq != m.seq {
			return nil
		}
		m.points = msg.Points
		m.list = listview.New(msg.Points, m.height, m.renderPoint)
		m.state = StateLoaded
		return nil
	case tea.KeyMsg:
		if msg.String() == "r" {
			return m.Load()
		}
		if m.list != nil {
			m.list.Update(msg)
		}
	}
	return nil
}

func (m *Model) renderPoint(p engine.HistoryPoint, selected bool) string {
	var line string
	if p.Err != nil {
		line = errorStyle.Render(p.Key + ": [error]")
	} else {
		line = fmt.Sprintf("%-12s %s", p.Date, m.format(p))
	}
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

// View renders the pane.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("HISTORY  %s / %s", m.Symbol, m.Attribute)))
	b.WriteString("\n\n")

	switch {
	case m.state == StateLoading:
		b.WriteString("Loading history...")
	case len(m.points) == 0:
		b.WriteString("No cached history.")
	default:
		b.WriteString(m.list.View())
		fmt.Fprintf(&b, "\n\n%d entries", len(m.points))
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("esc back  r reload  q quit"))
	return b.String()
}
