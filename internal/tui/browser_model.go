package tui

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/pecunia/internal/engine"
	"github.com/rshade/pecunia/internal/engine/cache"
	"github.com/rshade/pecunia/internal/tui/detail"
)

// Source is the read side of the finance cache the browser needs.
type Source interface {
	Entries(ctx context.Context) []engine.EntryInfo
	History(ctx context.Context, symbol, attribute string) []engine.HistoryPoint
}

// SortField selects the entry ordering.
type SortField int

// Sort fields.
const (
	SortByKey SortField = iota
	SortByAge
	SortByDate

	numSortFields = 3
)

func (s SortField) String() string {
	switch s {
	case SortByAge:
		return "age"
	case SortByDate:
		return "date"
	default:
		return "key"
	}
}

// errorReading marks rows whose stored record could not be decoded.
const errorReading = "[error reading]"

// EntryRow is a display-ready cache entry.
type EntryRow struct {
	Key       string
	Symbol    string
	Attribute string
	Date      string
	Value     string
	Age       time.Duration
	Malformed bool
}

// NewEntryRow converts an engine listing entry. Malformed records keep the identity
// recovered from their key.
func NewEntryRow(info engine.EntryInfo) EntryRow {
	row := EntryRow{Key: info.Key, Age: info.Age}
	if info.Err != nil || info.Entry == nil {
		row.Symbol, row.Attribute, row.Date, _ = cache.ParseKey(info.Key)
		row.Value = errorReading
		row.Malformed = true
		return row
	}
	row.Symbol = info.Entry.Symbol
	row.Attribute = info.Entry.Attribute
	row.Date = info.Entry.Date
	row.Value = FormatValue(info.Entry.Value)
	return row
}

func (r EntryRow) matches(query string) bool {
	return strings.Contains(strings.ToLower(r.Symbol), query) ||
		strings.Contains(strings.ToLower(r.Attribute), query) ||
		strings.Contains(r.Date, query) ||
		strings.Contains(strings.ToLower(r.Value), query)
}

type entriesLoadedMsg struct {
	rows []EntryRow
}

// BrowserModel is the Bubble Tea model for browsing cached finance data.
type BrowserModel struct {
	ctx    context.Context
	source Source

	state   ViewState
	all     []EntryRow
	rows    []EntryRow
	table   table.Model
	filter  textinput.Model
	loading *LoadingState
	history *detail.Model

	sortBy     SortField
	showFilter bool
	width      int
	height     int
}

// NewBrowserModel creates a browser that loads entries from source on Init.
func NewBrowserModel(ctx context.Context, source Source) *BrowserModel {
	ti := textinput.New()
	ti.Placeholder = "Filter by symbol, attribute, date or value..."
	ti.CharLimit = filterInputCharLimit
	ti.Width = filterInputWidth

	m := &BrowserModel{
		ctx:     ctx,
		source:  source,
		state:   ViewStateLoading,
		filter:  ti,
		loading: NewLoadingState("Reading cache..."),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	m.table = newEntryTable(nil, m.tableHeight())
	return m
}

// Init starts the spinner and the initial load.
func (m *BrowserModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.loadEntries())
}

func (m *BrowserModel) loadEntries() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		infos := source.Entries(ctx)
		rows := make([]EntryRow, len(infos))
		for i, info := range infos {
			rows[i] = NewEntryRow(info)
		}
		return entriesLoadedMsg{rows: rows}
	}
}

// Update implements tea.Model.
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(m.tableHeight())
		if m.history != nil {
			m.history.SetHeight(m.tableHeight())
		}
		return m, nil
	case entriesLoadedMsg:
		m.all = msg.rows
		m.state = ViewStateList
		m.applyFilter()
		return m, nil
	case detail.LoadedMsg:
		if m.history != nil {
			return m, m.history.Update(msg)
		}
		return m, nil
	}

	if m.showFilter {
		return m.updateFilter(msg)
	}

	switch m.state {
	case ViewStateLoading:
		return m, m.loading.Update(msg)
	case ViewStateList:
		return m.updateList(msg)
	case ViewStateDetail:
		return m.updateDetail(msg)
	case ViewStateQuitting, ViewStateError:
		return m, nil
	default:
		return m, nil
	}
}

func (m *BrowserModel) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEnter, keyEsc:
			m.showFilter = false
			m.filter.Blur()
			m.applyFilter()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *BrowserModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyQuit, keyCtrlC:
			m.state = ViewStateQuitting
			return m, tea.Quit
		case keyEnter:
			return m, m.openHistory()
		case keySlash:
			m.showFilter = true
			return m, m.filter.Focus()
		case keySort:
			m.sortBy = (m.sortBy + 1) % numSortFields
			m.applyFilter()
			return m, nil
		case keyRefresh:
			m.state = ViewStateLoading
			return m, tea.Batch(m.loading.Init(), m.loadEntries())
		case keyEsc:
			if m.filter.Value() != "" {
				m.filter.SetValue("")
				m.applyFilter()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *BrowserModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyQuit, keyCtrlC:
			m.state = ViewStateQuitting
			return m, tea.Quit
		case keyEsc, keyBackspace:
			m.state = ViewStateList
			m.history = nil
			return m, nil
		}
	}
	if m.history == nil {
		return m, nil
	}
	return m, m.history.Update(msg)
}

func (m *BrowserModel) openHistory() tea.Cmd {
	row, ok := m.SelectedRow()
	if !ok || row.Symbol == "" {
		return nil
	}
	m.history = detail.New(m.ctx, row.Symbol, row.Attribute, m.source.History,
		func(p engine.HistoryPoint) string { return FormatValue(p.Value) },
		m.tableHeight())
	m.state = ViewStateDetail
	return m.history.Load()
}

// SelectedRow returns the highlighted entry.
func (m *BrowserModel) SelectedRow() (EntryRow, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return EntryRow{}, false
	}
	return m.rows[i], true
}

// Rows returns the entries currently shown, after filtering and sorting.
func (m *BrowserModel) Rows() []EntryRow {
	return m.rows
}

// State returns the current view state.
func (m *BrowserModel) State() ViewState {
	return m.state
}

func (m *BrowserModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	rows := make([]EntryRow, 0, len(m.all))
	for _, r := range m.all {
		if query == "" || r.matches(query) {
			rows = append(rows, r)
		}
	}
	sortRows(rows, m.sortBy)
	m.rows = rows
	m.table.SetRows(toTableRows(rows))
	m.table.SetCursor(0)
}

func sortRows(rows []EntryRow, by SortField) {
	slices.SortStableFunc(rows, func(a, b EntryRow) int {
		var c int
		switch by {
		case SortByAge:
			c = cmp.Compare(a.Age, b.Age)
		case SortByDate:
			c = strings.Compare(b.Date, a.Date)
		case SortByKey:
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
}

func (m *BrowserModel) tableHeight() int {
	return max(m.height-chromeHeight, minHeight)
}
