package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ardnew/sprof/clock"
	"github.com/ardnew/sprof/export"
)

var clockHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)

// Clock prints the calibration of the system clock.
type Clock struct {
	Format string `default:"table" enum:"table,yaml,json" help:"Output format"`
}

// Run executes the clock command.
func (c *Clock) Run(ctx context.Context) error {
	cal := clock.SystemCalibration()
	w := stdout(ctx)

	if c.Format != tableFormat {
		f, err := export.ParseFormat(c.Format)
		if err != nil {
			return err
		}

		return export.Encode(w, f, cal)
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return clockHeaderStyle
			}

			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Row("resolution", cal.Resolution.String()).
		Row("overhead", cal.Overhead.String()).
		Row("sub-microsecond", strconv.FormatBool(cal.SubMicrosecond))

	_, err := fmt.Fprintln(w, t.String())

	return err
}
