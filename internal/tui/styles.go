package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shared styles.
//
//nolint:gochecknoglobals // lipgloss styles are package-level by convention.
var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	LabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ValueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	SubtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	InfoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	ErrorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	BoxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("240"))
	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))
)

// ViewState is the screen the browser is showing.
type ViewState int

// View states.
const (
	ViewStateLoading ViewState = iota
	ViewStateList
	ViewStateDetail
	ViewStateQuitting
	ViewStateError
)

// Key bindings.
const (
	keyQuit      = "q"
	keyCtrlC     = "ctrl+c"
	keyEnter     = "enter"
	keyEsc       = "esc"
	keySlash     = "/"
	keySort      = "s"
	keyRefresh   = "r"
	keyBackspace = "backspace"
)

// Layout.
const (
	defaultWidth         = 100
	defaultHeight        = 30
	minHeight            = 5
	borderPadding        = 2
	chromeHeight         = 8
	filterInputCharLimit = 64
	filterInputWidth     = 40
)

// LoadingState is a spinner with a message.
type LoadingState struct {
	spinner spinner.Model
	message string
}

// NewLoadingState creates a loading spinner showing message.
func NewLoadingState(message string) *LoadingState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = InfoStyle
	return &LoadingState{spinner: s, message: message}
}

// Init starts the spinner.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// RenderLoading renders the spinner line, or plain "Loading..." when loading is nil.
func RenderLoading(loading *LoadingState) string {
	if loading == nil {
		return "Loading..."
	}
	return "\n " + loading.spinner.View() + " " + loading.message + "\n\n"
}
