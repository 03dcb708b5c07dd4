// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package picker is the interactive front end to the split engine: a
// multi-select list of the module paths present in a pulled source document,
// followed by a destination prompt per selection. The result feeds the same
// mapping pipeline as --split.
package picker

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/staranto/tfsplitgo/internal/split"
	"github.com/staranto/tfsplitgo/internal/state"
)

// ErrAborted is returned when the user quits without confirming.
var ErrAborted = errors.New("picker aborted")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f6be00"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00c8f0"))
	checkedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00c8f0"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f6be00"))
	helpBarStyle  = lipgloss.NewStyle().Faint(true)
	errorBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

type item struct {
	path     string
	count    int
	selected bool
}

func (i item) FilterValue() string { return i.path }

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}

	check := "[ ]"
	if it.selected {
		check = checkedStyle.Render("[x]")
	}
	line := fmt.Sprintf("%s %s (%d instance(s))", check, it.path, it.count)

	if index == m.Index() {
		fmt.Fprint(w, cursorStyle.Render("> "+line))
		return
	}
	fmt.Fprint(w, "  "+line)
}

const (
	stagePick = iota
	stageDest
	stageDone
)

type model struct {
	stage    int
	list     list.Model
	input    textinput.Model
	pending  []string // selected module paths awaiting a destination
	specs    []string // "module=dir[:prefix]" accumulated so far
	errLine  string
	aborted  bool
	mappings []split.Mapping
}

func newModel(doc *state.Document) model {
	paths := doc.ModulePaths()

	items := make([]list.Item, 0, len(paths))
	for _, p := range paths {
		count := 0
		for _, r := range doc.Resources {
			if r.Module == p {
				count += len(r.Instances)
			}
		}
		items = append(items, item{path: p, count: count})
	}

	l := list.New(items, itemDelegate{}, 60, len(items)+6)
	l.Title = "modules in the source state"
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "dir[:new.prefix]"

	return model{stage: stagePick, list: l, input: ti}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	}

	switch m.stage {
	case stagePick:
		return m.updatePick(key)
	case stageDest:
		return m.updateDest(key)
	}
	return m, nil
}

func (m model) updatePick(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case " ":
		if it, ok := m.list.SelectedItem().(item); ok {
			it.selected = !it.selected
			return m, m.list.SetItem(m.list.Index(), it)
		}
		return m, nil

	case "enter":
		for _, li := range m.list.Items() {
			if it, ok := li.(item); ok && it.selected {
				m.pending = append(m.pending, it.path)
			}
		}
		if len(m.pending) == 0 {
			m.errLine = "select at least one module (space toggles)"
			return m, nil
		}
		m.errLine = ""
		m.stage = stageDest
		m.input.Focus()
		return m, textinput.Blink

	case "q":
		m.aborted = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(key)
	return m, cmd
}

func (m model) updateDest(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.String() == "enter" {
		spec := m.pending[0] + "=" + m.input.Value()
		if _, err := split.ParseMapping(spec); err != nil {
			m.errLine = err.Error()
			return m, nil
		}

		m.errLine = ""
		m.specs = append(m.specs, spec)
		m.pending = m.pending[1:]
		m.input.SetValue("")

		if len(m.pending) == 0 {
			mappings, err := Mappings(m.specs)
			if err != nil {
				m.errLine = err.Error()
				return m, nil
			}
			m.mappings = mappings
			m.stage = stageDone
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m model) View() string {
	switch m.stage {
	case stagePick:
		view := m.list.View() + "\n" +
			helpBarStyle.Render("space toggle · enter confirm · q quit")
		if m.errLine != "" {
			view += "\n" + errorBarStyle.Render(m.errLine)
		}
		return view

	case stageDest:
		view := promptStyle.Render("destination for "+m.pending[0]) + "\n" +
			m.input.View() + "\n" +
			helpBarStyle.Render("dir moves keeping the prefix · dir: flattens · dir:module.x renames")
		if m.errLine != "" {
			view += "\n" + errorBarStyle.Render(m.errLine)
		}
		return view
	}
	return ""
}

// Mappings parses accumulated "module=dir[:prefix]" specs.
func Mappings(specs []string) ([]split.Mapping, error) {
	mappings := make([]split.Mapping, 0, len(specs))
	for _, spec := range specs {
		m, err := split.ParseMapping(spec)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// Run walks the user through module selection and destination entry for the
// pulled source document.
func Run(doc *state.Document) ([]split.Mapping, error) {
	if len(doc.ModulePaths()) == 0 {
		return nil, fmt.Errorf("the source document has no module resources to pick from")
	}

	final, err := tea.NewProgram(newModel(doc)).Run()
	if err != nil {
		return nil, err
	}

	m, ok := final.(model)
	if !ok || m.aborted || m.stage != stageDone {
		return nil, ErrAborted
	}
	return m.mappings, nil
}
