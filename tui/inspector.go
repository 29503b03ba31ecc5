package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lattice-db/tarantool-go/clipboard"
	"github.com/lattice-db/tarantool-go/highlight"
)

func (m Model) updateInspect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.view = viewList
		m.inspectScroll = 0
		return m, nil
	case "c":
		ev := m.cursorEvent()
		if ev == nil || ev.Expr == "" {
			return m, nil
		}
		_ = clipboard.Copy(context.Background(), ev.Expr)
		return m, nil
	case "j", "down":
		maxScroll := max(len(m.inspectLines())-m.inspectVisibleRows(), 0)
		if m.inspectScroll < maxScroll {
			m.inspectScroll++
		}
		return m, nil
	case "k", "up":
		if m.inspectScroll > 0 {
			m.inspectScroll--
		}
		return m, nil
	}
	return m, nil
}

func (m Model) inspectLines() []string {
	ev := m.cursorEvent()
	if ev == nil {
		return nil
	}

	var lines []string
	lines = append(lines, "Sync:     "+strconv.FormatUint(ev.Sync, 10))
	lines = append(lines, "Command:  "+ev.Code.String())
	if ev.Expr != "" {
		lines = append(lines, "Expr:")
		for l := range strings.SplitSeq(ev.Expr, "\n") {
			lines = append(lines, "  "+highlight.Lua(strings.TrimSpace(l)))
		}
	}
	lines = append(lines, "Started:  "+formatTime(ev.StartTime))
	lines = append(lines, "Duration: "+formatDuration(ev.Duration))
	if ev.Err != "" {
		lines = append(lines, "Error:    "+ev.Err)
	} else if ev.Duration > 0 {
		lines = append(lines, "Result:   ok")
	} else {
		lines = append(lines, "Result:   in flight")
	}

	return lines
}

func (m Model) inspectVisibleRows() int {
	return max(m.height-2, 3) // -2 for top/bottom border
}

func (m Model) renderInspector() string {
	innerWidth := max(m.width-4, 20)
	visibleRows := m.inspectVisibleRows()

	lines := m.inspectLines()
	if lines == nil {
		return ""
	}

	maxScroll := max(len(lines)-visibleRows, 0)
	if m.inspectScroll > maxScroll {
		m.inspectScroll = maxScroll
	}

	end := min(m.inspectScroll+visibleRows, len(lines))
	visible := lines[m.inspectScroll:end]
	content := strings.Join(visible, "\n")

	borderColor := lipgloss.Color("240")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(innerWidth).
		BorderForeground(borderColor).
		Render(content)

	boxLines := strings.Split(box, "\n")
	if len(boxLines) > 0 {
		borderFg := lipgloss.NewStyle().Foreground(borderColor)
		titleStyle := lipgloss.NewStyle().Bold(true)
		title := " Inspector "
		dashes := max(innerWidth-len([]rune(title)), 0)
		boxLines[0] = borderFg.Render("╭") +
			titleStyle.Render(title) +
			borderFg.Render(strings.Repeat("─", dashes)+"╮")
	}

	if n := len(boxLines); n > 0 {
		borderFg := lipgloss.NewStyle().Foreground(borderColor)
		help := " q: back  j/k: scroll  c: copy expr "
		dashes := max(innerWidth-len([]rune(help)), 0)
		boxLines[n-1] = borderFg.Render("╰") +
			lipgloss.NewStyle().Faint(true).Render(help) +
			borderFg.Render(strings.Repeat("─", dashes)+"╯")
	}

	return strings.Join(boxLines, "\n")
}

func (m Model) renderPreview() string {
	innerWidth := max(m.width-4, 20)

	ev := m.cursorEvent()
	if ev == nil {
		return ""
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Sync: %d   Command: %s", ev.Sync, ev.Code.String()))
	if ev.Expr != "" {
		maxLen := max(innerWidth-7, 20)
		lines = append(lines, "Expr: "+highlight.Lua(truncate(ev.Expr, maxLen)))
	}
	lines = append(lines, "Duration: "+formatDuration(ev.Duration))
	if ev.Err != "" {
		lines = append(lines, "Error: "+ev.Err)
	}

	content := strings.Join(lines, "\n")

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(innerWidth).
		BorderForeground(lipgloss.Color("240"))

	return border.Render(content)
}
