// Package view is an interactive terminal browser for line profiles. It
// starts from the costliest lines and drills into the functions a line
// calls, keeping a breadcrumb trail of the path taken.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/sprof/aggregate"
	"github.com/ardnew/sprof/log"
	"github.com/ardnew/sprof/report"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	crumbStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const (
	defaultWidth  = 120
	defaultHeight = 24
	// chromeHeight is the number of lines around the table.
	chromeHeight = 6
)

var columnWidths = []int{10, 10, 7, 16, 16, 40}

// level is one step of the drill-down.
type level struct {
	title  string
	lines  []aggregate.Line
	cursor int
}

// Model is the [tea.Model] of the browser.
type Model struct {
	ctx      context.Context
	reporter *report.Reporter
	logger   log.Logger

	levels []level
	table  table.Model
	search textinput.Model

	searching bool
	status    string
	width     int
	height    int
}

// New returns a browser over r showing every line.
func New(ctx context.Context, r *report.Reporter, logger log.Logger) Model {
	columns := make([]table.Column, len(report.Headers))
	for i, h := range report.Headers {
		columns[i] = table.Column{Title: h, Width: columnWidths[i]}
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "function"

	m := Model{
		ctx:      ctx,
		reporter: r,
		logger:   logger,
		table: table.New(
			table.WithColumns(columns),
			table.WithFocused(true),
			table.WithHeight(defaultHeight-chromeHeight),
		),
		search: search,
		width:  defaultWidth,
		height: defaultHeight,
	}

	m.push("all lines", r.Lines())

	return m
}

// Focus opens the lines of the function best matching pattern.
func (m Model) Focus(pattern string) Model {
	names := m.reporter.Find(pattern)
	if len(names) == 0 {
		m.status = fmt.Sprintf("no function matches %q", pattern)

		return m
	}

	m.push("func "+names[0], m.reporter.ChildrenOf(names[0]))

	return m
}

// Depth returns the number of levels on the trail, the root included.
func (m Model) Depth() int { return len(m.levels) }

// Title returns the title of the current level.
func (m Model) Title() string { return m.levels[len(m.levels)-1].title }

// Lines returns the lines shown at the current level.
func (m Model) Lines() []aggregate.Line { return m.levels[len(m.levels)-1].lines }

// Status returns the last status message.
func (m Model) Status() string { return m.status }

func (m *Model) push(title string, lines []aggregate.Line) {
	if n := len(m.levels); n > 0 {
		m.levels[n-1].cursor = m.table.Cursor()
	}

	m.levels = append(m.levels, level{title: title, lines: lines})
	m.status = ""
	m.refresh(0)

	m.logger.TraceContext(m.ctx, "view push",
		slog.String("title", title),
		slog.Int("lines", len(lines)),
		slog.Int("depth", len(m.levels)),
	)
}

func (m *Model) pop() {
	if len(m.levels) < 2 {
		m.status = "at top level"

		return
	}

	m.levels = m.levels[:len(m.levels)-1]
	m.status = ""
	m.refresh(m.levels[len(m.levels)-1].cursor)
}

func (m *Model) refresh(cursor int) {
	lines := m.Lines()

	rows := make([]table.Row, len(lines))
	for i, l := range lines {
		cells, _ := m.reporter.Cells(l)
		rows[i] = cells
	}

	m.table.SetRows(rows)
	m.table.SetCursor(cursor)
}

// descend opens the callees of the selected line.
func (m *Model) descend() {
	lines := m.Lines()
	if len(lines) == 0 {
		return
	}

	sel := lines[min(m.table.Cursor(), len(lines)-1)]

	callees := m.reporter.Callees(sel.Key)
	if len(callees) == 0 {
		m.status = sel.Location().String() + " calls nothing that was sampled"

		return
	}

	m.push("calls from "+sel.Key.String(), callees)
}

// Init implements [tea.Model].
func (m Model) Init() tea.Cmd { return nil }

// Update implements [tea.Model].
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-chromeHeight, 1))
		m.table.SetWidth(msg.Width)

		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter", "right", "l":
			m.descend()

			return m, nil
		case "esc", "backspace", "left", "h":
			m.pop()

			return m, nil
		case "/":
			m.searching = true
			m.search.Reset()

			return m, m.search.Focus()
		}
	}

	var cmd tea.Cmd

	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()

		return m.Focus(m.search.Value()), nil
	case "esc", "ctrl+c":
		m.searching = false
		m.search.Blur()

		return m, nil
	}

	var cmd tea.Cmd

	m.search, cmd = m.search.Update(msg)

	return m, cmd
}

// View implements [tea.Model].
func (m Model) View() string {
	var b strings.Builder

	crumbs := make([]string, len(m.levels))
	for i, l := range m.levels {
		crumbs[i] = l.title
	}

	b.WriteString(titleStyle.Render(m.Title()))
	b.WriteString("\n")
	b.WriteString(crumbStyle.Render(strings.Join(crumbs, " › ")))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status))
	default:
		p := m.reporter.Profile()
		b.WriteString(hintStyle.Render(fmt.Sprintf("samples %d, interval %s, unresolved %d, hazardous %d",
			p.Samples, p.Interval, p.Unresolved, p.Hazardous)))
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter: callees  esc: back  /: find function  q: quit"))
	b.WriteString("\n")

	return b.String()
}

// Run browses r until the user quits. A non-empty focus opens the lines
// of the best matching function first.
func Run(
	ctx context.Context,
	r *report.Reporter,
	focus string,
	logger log.Logger,
	opts ...tea.ProgramOption,
) error {
	m := New(ctx, r, logger)
	if focus != "" {
		m = m.Focus(focus)
	}

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)

	_, err := tea.NewProgram(m, opts...).Run()

	return err
}
