package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/ebcrawler/pkg/export"
)

const rowFormat = "%-10s %-17s %-50s %9s %9s"

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	spendStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")) // red
)

// WriteTable prints the report as fixed width columns, clipping point type
// and description to fit.
func WriteTable(w io.Writer, r *export.Report) error {
	header := fmt.Sprintf(rowFormat, "DATE", "POINTTYPE", "DESCRIPTION", "BASE", "POINTS")
	if _, err := fmt.Fprintln(w, headerStyle.Render(header)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", len(header))); err != nil {
		return err
	}

	for _, row := range r.Rows {
		line := fmt.Sprintf(rowFormat,
			row.Date,
			clip(row.PointType, 17),
			clip(row.Description, 50),
			fmt.Sprint(row.BasePoints),
			fmt.Sprint(row.UsePoints),
		)
		if row.UsePoints < 0 {
			line = spendStyle.Render(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary prints the balances and the transaction count.
func WriteSummary(w io.Writer, r *export.Report) error {
	_, err := fmt.Fprintf(w, "Base points:    %d\nTotal points:   %d\nFetched %d EuroBonus transactions.\n",
		r.PointsAvailable, r.TotalPointsForUse, len(r.Rows))
	return err
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
