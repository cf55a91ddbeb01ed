package report

import (
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ardnew/sprof/aggregate"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	sourceStyle = cellStyle.Foreground(lipgloss.Color("15"))
	rawStyle    = cellStyle.Foreground(lipgloss.Color("8"))
)

// Headers are the column titles of [Reporter.Table].
var Headers = []string{"time", "self", "share", "location", "function", "source"}

// Table renders lines as a text table in the order given.
func (r *Reporter) Table(lines []aggregate.Line) string {
	found := make([]bool, len(lines))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(Headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col < 3:
				return numberStyle
			case col == 5 && row < len(found) && !found[row]:
				return rawStyle
			case col == 5:
				return sourceStyle
			default:
				return cellStyle
			}
		})

	for i, l := range lines {
		var cells []string

		cells, found[i] = r.Cells(l)
		t.Row(cells...)
	}

	return t.String()
}

// Cells returns the column values of l in [Headers] order and whether its
// source text was found.
func (r *Reporter) Cells(l aggregate.Line) ([]string, bool) {
	src, ok := r.Source(l.Key)

	return []string{
		l.EstimatedTime().String(),
		l.SelfTime().String(),
		strconv.FormatFloat(100*r.Share(l), 'f', 1, 64) + "%",
		l.Location().String(),
		l.Func,
		src,
	}, ok
}

// Render writes the table of lines, or of every line when none are given,
// followed by a one-line summary of the profile.
func (r *Reporter) Render(w io.Writer, lines ...aggregate.Line) error {
	if lines == nil {
		lines = r.lines
	}

	p := r.profile
	summary := "samples " + strconv.Itoa(p.Samples) +
		", interval " + p.Interval.String() +
		", unresolved " + strconv.Itoa(p.Unresolved) +
		", hazardous " + strconv.Itoa(p.Hazardous)

	_, err := io.WriteString(w, r.Table(lines)+"\n"+summary+"\n")

	return err
}
