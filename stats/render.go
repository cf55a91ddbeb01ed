package stats

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	coarseStyle = numberStyle.Foreground(lipgloss.Color("3"))
)

const coarseMark = "*"

// Headers are the column titles of [Table].
var Headers = []string{"label", "min", "lq", "median", "uq", "max", "count", "unit", "relative"}

// Table renders rows as a bordered text table. Rows whose median is below
// the clock resolution are highlighted and marked.
func Table(rows []Stats) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(Headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			case row < len(rows) && rows[row].BelowResolution:
				return coarseStyle
			default:
				return numberStyle
			}
		})

	coarse := false

	for _, r := range rows {
		label := r.Label
		if r.BelowResolution {
			label += " " + coarseMark
			coarse = true
		}

		t.Row(
			label,
			Format(r.Min, r.Unit),
			Format(r.LowerQuartile, r.Unit),
			Format(r.Median, r.Unit),
			Format(r.UpperQuartile, r.Unit),
			Format(r.Max, r.Unit),
			strconv.Itoa(r.Count),
			r.Unit.String(),
			strconv.FormatFloat(r.Relative, 'f', 2, 64)+"x",
		)
	}

	var sb strings.Builder

	sb.WriteString(t.String())

	if coarse {
		sb.WriteString("\n" + coarseMark + " median below clock resolution")
	}

	return sb.String()
}

// Render writes [Table] to w followed by a newline.
func Render(w io.Writer, rows []Stats) error {
	_, err := io.WriteString(w, Table(rows)+"\n")

	return err
}

// Format renders v with a precision suited to u.
func Format(v float64, u Unit) string {
	prec := 3
	if u == Nanoseconds || u.Rate() {
		prec = 1
	}

	return strconv.FormatFloat(v, 'f', prec, 64)
}
