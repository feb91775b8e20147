// Package tui provides the interactive selection view used to pick what to
// run before dispatching.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/blockwright/internal/dispatch"
	"github.com/fentz26/blockwright/internal/selection"
)

// Options configures the selection view.
type Options struct {
	Project       string
	Mode          dispatch.Mode
	DefaultTarget string
	// Cascade starts with suite toggles writing through to their cases.
	Cascade bool
}

// Result is what the user confirmed when the view closed.
type Result struct {
	Matrix    *selection.Matrix
	Mode      dispatch.Mode
	Confirmed bool
}

// row is one visible line: a suite, or a case when kase >= 0.
type row struct {
	suite int
	kase  int
}

// App is the main TUI application model.
type App struct {
	matrix    *selection.Matrix
	opts      Options
	mode      dispatch.Mode
	cascade   bool
	collapsed map[string]bool

	rows   []row
	cursor int
	offset int

	keys      keyMap
	help      help.Model
	message   string
	isError   bool
	confirmed bool

	width  int
	height int
}

// New creates a selection view over m. The matrix is edited in place.
func New(m *selection.Matrix, opts Options) *App {
	a := &App{
		matrix:    m,
		opts:      opts,
		mode:      opts.Mode,
		cascade:   opts.Cascade,
		collapsed: make(map[string]bool),
		keys:      defaultKeyMap(),
		help:      help.New(),
		width:     80,
	}
	a.rebuildRows()
	return a
}

// Run starts the TUI and blocks until the user runs or quits.
func Run(m *selection.Matrix, opts Options) (Result, error) {
	a := New(m, opts)
	p := tea.NewProgram(a, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return Result{}, err
	}
	return a.Result(), nil
}

// Result returns the current matrix, mode and whether the user confirmed.
func (a *App) Result() Result {
	return Result{Matrix: a.matrix, Mode: a.mode, Confirmed: a.confirmed}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) rebuildRows() {
	a.rows = a.rows[:0]
	for i, s := range a.matrix.Suites {
		a.rows = append(a.rows, row{suite: i, kase: -1})
		if a.collapsed[s.Name] {
			continue
		}
		for j := range s.Cases {
			a.rows = append(a.rows, row{suite: i, kase: j})
		}
	}
	if a.cursor >= len(a.rows) {
		a.cursor = max(0, len(a.rows)-1)
	}
}

func (a *App) current() (*selection.SuiteSelection, *selection.CaseSelection, bool) {
	if len(a.rows) == 0 {
		return nil, nil, false
	}
	r := a.rows[a.cursor]
	s := a.matrix.Suites[r.suite]
	if r.kase < 0 {
		return s, nil, true
	}
	return s, s.Cases[r.kase], true
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width

	case tea.KeyMsg:
		a.message = ""
		a.isError = false
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, a.keys.Run):
			a.confirmed = true
			return a, tea.Quit

		case key.Matches(msg, a.keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}

		case key.Matches(msg, a.keys.Down):
			if a.cursor < len(a.rows)-1 {
				a.cursor++
			}

		case key.Matches(msg, a.keys.Expand), key.Matches(msg, a.keys.Collapse):
			if s, c, ok := a.current(); ok {
				if c != nil && key.Matches(msg, a.keys.Collapse) {
					// Collapse from a case jumps to its suite.
					a.cursor = a.suiteRow(a.rows[a.cursor].suite)
				}
				a.collapsed[s.Name] = key.Matches(msg, a.keys.Collapse)
				a.rebuildRows()
			}

		case key.Matches(msg, a.keys.Select):
			a.toggle(selection.FieldSelected)
		case key.Matches(msg, a.keys.Smoke):
			a.toggle(selection.FieldSmoke)
		case key.Matches(msg, a.keys.Regression):
			a.toggle(selection.FieldRegression)

		case key.Matches(msg, a.keys.Browser):
			a.toggleBrowser(int(msg.String()[0] - '1'))

		case key.Matches(msg, a.keys.Cascade):
			a.cascade = !a.cascade
			a.message = fmt.Sprintf("cascade %s", onOff(a.cascade))

		case key.Matches(msg, a.keys.Mode):
			a.mode = dispatch.Modes[(int(a.mode)+1)%len(dispatch.Modes)]

		case key.Matches(msg, a.keys.Help):
			a.help.ShowAll = !a.help.ShowAll
		}
	}

	a.scroll()
	return a, nil
}

func (a *App) suiteRow(suite int) int {
	for i, r := range a.rows {
		if r.suite == suite && r.kase < 0 {
			return i
		}
	}
	return 0
}

func (a *App) toggle(f selection.Field) {
	s, c, ok := a.current()
	if !ok {
		return
	}
	var err error
	if c == nil {
		err = a.matrix.SetSuite(s.Name, f, !s.Get(f), a.cascade)
	} else {
		err = a.matrix.SetCase(s.Name, c.Name, f, !c.Get(f))
	}
	a.report(err)
}

func (a *App) toggleBrowser(idx int) {
	if idx < 0 || idx >= len(a.matrix.Targets) {
		a.message = fmt.Sprintf("no browser %d", idx+1)
		a.isError = true
		return
	}
	s, c, ok := a.current()
	if !ok {
		return
	}
	target := a.matrix.Targets[idx]
	var err error
	if c == nil {
		err = a.matrix.SetSuiteBrowser(s.Name, target, !s.Browsers[target])
	} else {
		err = a.matrix.SetCaseBrowser(s.Name, c.Name, target, !c.Browsers[target])
	}
	a.report(err)
}

func (a *App) report(err error) {
	a.isError = err != nil
	if err != nil {
		a.message = "Error: " + err.Error()
	}
}

// scroll keeps the cursor inside the visible window.
func (a *App) scroll() {
	h := a.listHeight()
	if h <= 0 {
		a.offset = 0
		return
	}
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+h {
		a.offset = a.cursor - h + 1
	}
}

func (a *App) listHeight() int {
	if a.height == 0 {
		return 0
	}
	return max(3, a.height-9)
}

// Planned returns the run requests the current selection would dispatch.
func (a *App) Planned() int {
	return len(dispatch.Expand(a.matrix, a.mode, dispatch.ExpandOptions{
		DefaultTarget: a.opts.DefaultTarget,
		BatchID:       "preview",
	}))
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	header := titleStyle.Render("Blockwright")
	if a.opts.Project != "" {
		header += " " + suiteStyle.Render(a.opts.Project)
	}
	header += "  " + modeStyle.Render("mode: "+a.mode.String())
	header += "  " + mutedStyle.Render("cascade: "+onOff(a.cascade))
	b.WriteString(header + "\n\n")

	if len(a.rows) == 0 {
		b.WriteString(mutedStyle.Render("  No suites yet. Add one with: blockwright suite add <name>") + "\n")
	} else {
		b.WriteString(a.renderColumns() + "\n")
		end := len(a.rows)
		if h := a.listHeight(); h > 0 && a.offset+h < end {
			end = a.offset + h
		}
		for i := a.offset; i < end; i++ {
			b.WriteString(a.renderRow(i) + "\n")
		}
	}

	b.WriteString("\n")
	if a.message != "" {
		style := infoStyle
		if a.isError {
			style = errorStyle
		}
		b.WriteString(style.Render(a.message))
	}
	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys) + "\n")

	status := fmt.Sprintf(" Suites: %d | Planned runs: %d | Enter:run | q:quit", len(a.matrix.Suites), a.Planned())
	b.WriteString(statusBarStyle.Width(a.width).Render(status))
	return b.String()
}

const nameWidth = 36

func (a *App) renderColumns() string {
	cols := []string{fmt.Sprintf("  %-*s", nameWidth, "NAME"), "SEL", "SMK", "REG"}
	for i, t := range a.matrix.Targets {
		cols = append(cols, fmt.Sprintf("%d:%s", i+1, t))
	}
	return mutedStyle.Render(strings.Join(cols, " "))
}

func (a *App) renderRow(i int) string {
	r := a.rows[i]
	s := a.matrix.Suites[r.suite]

	flags := &s.Flags
	name := s.Name
	if r.kase >= 0 {
		c := s.Cases[r.kase]
		flags = &c.Flags
		name = "  " + c.Name
	} else if a.collapsed[s.Name] {
		name = "▸ " + name
	} else {
		name = "▾ " + name
	}
	name = truncate(name, nameWidth)

	cells := []string{check(flags.Selected), check(flags.Smoke), check(flags.Regression)}
	for _, t := range a.matrix.Targets {
		cells = append(cells, lipgloss.NewStyle().Width(lipgloss.Width(t)+2).Render(check(flags.Browsers[t])))
	}
	line := fmt.Sprintf("%-*s ", nameWidth, name) + strings.Join(cells, " ")

	switch {
	case i == a.cursor:
		return selectedStyle.Render("▶ " + line)
	case r.kase >= 0:
		return "  " + line
	default:
		return "  " + suiteStyle.Render(line)
	}
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
