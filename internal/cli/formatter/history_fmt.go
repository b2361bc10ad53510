package formatter

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/alexanderramin/bananadeck/internal/contract"
)

// FormatHistory renders the expansion log as a table, oldest first.
func FormatHistory(records []contract.RecordView, now time.Time) string {
	if len(records) == 0 {
		return Dim("No expansions yet.") + "\n"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		Headers("WHEN", "SLIDE", "LENS", "CHILDREN").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return StyleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, r := range records {
		t.Row(HumanTimestampFrom(r.Timestamp, now), r.ParentTitle, LensBadge(r.Lens), strconv.Itoa(len(r.ChildIDs)))
	}
	return t.Render() + "\n"
}
