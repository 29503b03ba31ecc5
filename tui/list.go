package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column widths.
const (
	colMarker   = 2
	colSync     = 8
	colCommand  = 10
	colDuration = 10
	colStatus   = 5
)

func (m Model) renderList(maxRows int) string {
	innerWidth := max(m.width-4, 20)
	colExpr := max(innerWidth-colMarker-colSync-colCommand-colDuration-colStatus-5, 10)

	var title string
	if m.searchQuery != "" || m.filterQuery != "" {
		title = fmt.Sprintf(" tarantool trace (%d/%d) ", len(m.visibleRows), len(m.events))
	} else {
		title = fmt.Sprintf(" tarantool trace (%d) ", len(m.events))
	}

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(innerWidth)

	dataRows := max(maxRows-1, 1) // -1 for header row

	start := 0
	if len(m.visibleRows) > dataRows {
		start = max(m.cursor-dataRows/2, 0)
		if start+dataRows > len(m.visibleRows) {
			start = len(m.visibleRows) - dataRows
		}
	}
	end := min(start+dataRows, len(m.visibleRows))

	header := fmt.Sprintf("  %-*s %-*s %-*s %*s %-*s",
		colSync, "Sync",
		colCommand, "Command",
		colExpr, "Expr",
		colDuration, "Duration",
		colStatus, "",
	)

	var rows []string
	rows = append(rows, lipgloss.NewStyle().Bold(true).Render(header))
	for i := start; i < end; i++ {
		rows = append(rows, m.renderEventRow(i, colExpr))
	}

	borderColor := lipgloss.Color("240")
	border = border.BorderForeground(borderColor)
	content := strings.Join(rows, "\n")

	box := border.Render(content)
	lines := strings.Split(box, "\n")
	if len(lines) > 0 {
		borderFg := lipgloss.NewStyle().Foreground(borderColor)
		titleStyle := lipgloss.NewStyle().Bold(true)
		dashes := max(innerWidth-len([]rune(title)), 0)
		lines[0] = borderFg.Render("╭") +
			titleStyle.Render(title) +
			borderFg.Render(strings.Repeat("─", dashes)+"╮")
		box = strings.Join(lines, "\n")
	}

	return box
}

func (m Model) renderEventRow(i, colExpr int) string {
	ev := m.events[m.visibleRows[i]]
	marker := "  "
	if i == m.cursor {
		marker = "▶ "
	}

	expr := truncate(ev.Expr, colExpr)
	if expr == "" {
		expr = "-"
	}

	status := ""
	switch {
	case ev.Err != "":
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("ERR")
	case ev.Duration == 0:
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render("...")
	default:
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("ok")
	}

	row := fmt.Sprintf("%s%-*s %-*s %-*s %*s %-*s",
		marker,
		colSync, strconv.FormatUint(ev.Sync, 10),
		colCommand, ev.Code.String(),
		colExpr, expr,
		colDuration, formatDuration(ev.Duration),
		colStatus, status,
	)
	if i == m.cursor {
		row = lipgloss.NewStyle().Bold(true).Render(row)
	}
	return row
}
