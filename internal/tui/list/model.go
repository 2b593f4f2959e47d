package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one item. selected is true for the highlighted row.
type RenderFunc[T any] func(item T, selected bool) string

// Model is a keyboard-navigable list with a fixed-height viewport.
type Model[T any] struct {
	items    []T
	render   RenderFunc[T]
	selected int
	offset   int
	height   int
}

// New creates a list showing height rows at a time. height below 1 is treated as 1.
func New[T any](items []T, height int, render RenderFunc[T]) *Model[T] {
	return &Model[T]{items: items, render: render, height: max(height, 1)}
}

// Init implements tea.Model.
func (m *Model[T]) Init() tea.Cmd {
	return nil
}

// Update moves the selection on navigation keys.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.items) == 0 {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		m.Select(m.selected - 1)
	case "down", "j":
		m.Select(m.selected + 1)
	case "pgup":
		m.Select(m.selected - m.height)
	case "pgdown":
		m.Select(m.selected + m.height)
	case "home", "g":
		m.Select(0)
	case "end", "G":
		m.Select(len(m.items) - 1)
	}
	return m, nil
}

// Select moves the selection to index, clamped to the list, and scrolls it into view.
func (m *Model[T]) Select(index int) {
	if len(m.items) == 0 {
		m.selected, m.offset = 0, 0
		return
	}
	m.selected = min(max(index, 0), len(m.items)-1)

	switch {
	case m.selected < m.offset:
		m.offset = m.selected
	case m.selected >= m.offset+m.height:
		m.offset = m.selected - m.height + 1
	}
}

// SetHeight resizes the viewport and keeps the selection visible.
func (m *Model[T]) SetHeight(height int) {
	m.height = max(height, 1)
	m.offset = 0
	m.Select(m.selected)
}

// View renders the rows inside the viewport.
func (m *Model[T]) View() string {
	if len(m.items) == 0 {
		return ""
	}
	end := min(m.offset+m.height, len(m.items))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.render(m.items[i], i == m.selected))
	}
	return strings.Join(lines, "\n")
}

// Selected returns the selected index.
func (m *Model[T]) Selected() int {
	return m.selected
}

// SelectedItem returns the selected item, or false when the list is empty.
func (m *Model[T]) SelectedItem() (T, bool) {
	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	return m.items[m.selected], true
}

// Len returns the number of items.
func (m *Model[T]) Len() int {
	return len(m.items)
}

// Window returns the [from, to) range of visible item indexes.
func (m *Model[T]) Window() (int, int) {
	return m.offset, min(m.offset+m.height, len(m.items))
}
