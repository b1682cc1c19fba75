package app

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/chrissnell/blmheader/internal/header"
)

// RenderReport formats the matches of a build as a table, followed by a
// short summary.
func RenderReport(res *header.Result) string {
	dup := make(map[string]bool, len(res.Duplicates))
	for _, d := range res.Duplicates {
		dup[d.Name] = true
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Column", "Signal", "Distance", "Runner-up", "Runner-up distance", "Margin", ""})
	for _, m := range res.Matches {
		flag := ""
		switch {
		case m.Name == header.Unmatched:
			flag = "no overlap"
		case dup[m.Name]:
			flag = "duplicate"
		}
		tw.AppendRow(table.Row{
			m.Column,
			m.Name,
			formatDistance(m.Distance),
			m.RunnerUp,
			formatDistance(m.RunnerUpDistance),
			formatDistance(m.Margin()),
			flag,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d columns", len(res.Matches)), "", "", "", "", fmt.Sprintf("%d duplicate(s)", len(res.Duplicates))})

	return fmt.Sprintf("%s\nrun %s, window %s, %d empty pair(s), %s",
		tw.Render(), res.RunID, res.Window, res.EmptyPairs, res.Elapsed.Round(time.Millisecond))
}

func formatDistance(d float64) string {
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return "-"
	}
	return strconv.FormatFloat(d, 'g', 6, 64)
}
