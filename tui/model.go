// Package tui renders a Conn.Trace() stream live: a scrolling list of
// in-flight and completed requests, a detail pane for the selected
// request, and a status line summarizing capture counts and any
// detected CALL/EVAL burst.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lattice-db/tarantool-go"
	"github.com/lattice-db/tarantool-go/clipboard"
	"github.com/lattice-db/tarantool-go/detect"
	"github.com/lattice-db/tarantool-go/query"
)

type viewMode int

const (
	viewList viewMode = iota
	viewInspect
)

// maxEvents bounds the in-memory trace log; older events are dropped
// once the cap is reached, oldest first.
const maxEvents = 2000

// Model is the Bubble Tea model for the live trace monitor.
type Model struct {
	ch     <-chan tarantool.TraceEvent
	closed bool

	events      []tarantool.TraceEvent
	visibleRows []int // indices into events passing the current filter/search
	cursor      int
	follow      bool
	width       int
	height      int
	view        viewMode

	searchMode   bool
	searchQuery  string
	searchCursor int
	filterMode   bool
	filterQuery  string
	filterCursor int

	detector   *detect.Detector
	lastAlert  *detect.Alert
	inspectScroll int
}

// eventMsg carries a received TraceEvent from the connection.
type eventMsg struct{ Event tarantool.TraceEvent }

// traceClosedMsg signals the trace channel was closed (the connection
// tore down, or a new Trace() subscriber replaced this one).
type traceClosedMsg struct{}

// New creates a Model that renders ch, the channel returned by
// Conn.Trace(), live. It also runs a burst detector over CALL/EVAL
// expressions (normalized via query.Normalize) seen on the stream,
// alerting once threshold occurrences of the same normalized
// expression land within window, at most once per cooldown per
// expression. A threshold <= 0 falls back to the package default.
func New(ch <-chan tarantool.TraceEvent, threshold int, window, cooldown time.Duration) Model {
	if threshold <= 0 {
		threshold = 20
	}
	if window <= 0 {
		window = time.Second
	}
	if cooldown <= 0 {
		cooldown = 10 * time.Second
	}
	return Model{
		ch:       ch,
		follow:   true,
		detector: detect.New(threshold, window, cooldown),
	}
}

func (m Model) Init() tea.Cmd {
	return recvEvent(m.ch)
}

func recvEvent(ch <-chan tarantool.TraceEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return traceClosedMsg{}
		}
		return eventMsg{Event: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.events = append(m.events, msg.Event)
		if len(m.events) > maxEvents {
			m.events = m.events[len(m.events)-maxEvents:]
		}
		if msg.Event.Expr != "" && msg.Event.Duration == 0 {
			norm := query.Normalize(msg.Event.Expr)
			if r := m.detector.Record(norm, msg.Event.StartTime); r.Alert != nil {
				m.lastAlert = r.Alert
			}
		}
		m.rebuildVisibleRows()
		if m.follow {
			m.cursor = max(len(m.visibleRows)-1, 0)
		}
		return m, recvEvent(m.ch)

	case traceClosedMsg:
		m.closed = true
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case viewInspect:
			return m.updateInspect(msg)
		case viewList:
			return m.updateList(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m *Model) rebuildVisibleRows() {
	matched := matchingEventsFiltered(m.events, m.filterQuery, m.searchQuery)
	rows := make([]int, 0, len(matched))
	for i := range m.events {
		if matched[i] {
			rows = append(rows, i)
		}
	}
	m.visibleRows = rows
}

// matchingEventsFiltered returns the set of event indices passing both
// the structured filter (filterQuery) and the text search (searchQuery).
// Either may be empty.
func matchingEventsFiltered(events []tarantool.TraceEvent, filterQuery, searchQuery string) map[int]bool {
	matched := make(map[int]bool, len(events))

	var conds []filterCondition
	if filterQuery != "" {
		conds = parseFilter(filterQuery)
	}
	searchLower := strings.ToLower(searchQuery)

	for i, ev := range events {
		if len(conds) > 0 && !matchAllConditions(ev, conds) {
			continue
		}
		if searchLower != "" && !strings.Contains(strings.ToLower(ev.Expr), searchLower) {
			continue
		}
		matched[i] = true
	}
	return matched
}

func (m Model) cursorEvent() *tarantool.TraceEvent {
	if m.cursor < 0 || m.cursor >= len(m.visibleRows) {
		return nil
	}
	ev := m.events[m.visibleRows[m.cursor]]
	return &ev
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	if len(m.events) == 0 {
		if m.closed {
			return "Trace stream closed before any requests arrived."
		}
		return "Waiting for requests..."
	}

	if m.view == viewInspect {
		return m.renderInspector()
	}

	var footer string
	switch {
	case m.searchMode:
		footer = "  / " + renderInputWithCursor(m.searchQuery, m.searchCursor)
	case m.filterMode:
		footer = "  filter: " + renderInputWithCursor(m.filterQuery, m.filterCursor)
	default:
		items := []string{
			"q: quit", "j/k: navigate", "enter: inspect",
			"c: copy expr", "/: search", "f: filter",
			"w: export json", "W: export markdown",
		}
		footer = wrapFooterItems(items, m.width)
		if m.filterQuery != "" {
			footer += "\n  " + fmt.Sprintf("[filter: %s]", describeFilter(m.filterQuery))
		}
		if m.searchQuery != "" || m.filterQuery != "" {
			footer += "  esc: clear"
		}
	}

	if m.lastAlert != nil {
		footer += fmt.Sprintf("\n  burst: %s x%d", truncate(m.lastAlert.Expr, 60), m.lastAlert.Count)
	}
	if m.closed {
		footer += "\n  [trace stream closed]"
	}

	footerLines := strings.Count(footer, "\n") + 1
	listHeight := m.listHeight(footerLines)

	return strings.Join([]string{
		m.renderList(listHeight),
		m.renderPreview(),
		footer,
	}, "\n")
}

func (m Model) listHeight(footerLines int) int {
	extra := max(footerLines-1, 0)
	return max(m.height-12-extra, 3)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchMode {
		return m.updateSearch(msg)
	}
	if m.filterMode {
		return m.updateFilter(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if len(m.visibleRows) > 0 {
			m.view = viewInspect
			m.inspectScroll = 0
		}
		return m, nil
	case "c":
		if ev := m.cursorEvent(); ev != nil && ev.Expr != "" {
			_ = clipboard.Copy(context.Background(), ev.Expr)
		}
		return m, nil
	case "/":
		m.searchMode = true
		m.searchQuery = ""
		m.searchCursor = 0
		return m, nil
	case "f":
		m.filterMode = true
		m.filterQuery = ""
		m.filterCursor = 0
		return m, nil
	case "w":
		_, _ = writeExport(m.events, m.filterQuery, m.searchQuery, exportJSON, "")
		return m, nil
	case "W":
		_, _ = writeExport(m.events, m.filterQuery, m.searchQuery, exportMarkdown, "")
		return m, nil
	case "esc":
		return m.clearFilter(), nil
	case "j", "down":
		return m.navigateCursor(msg.String()), nil
	case "k", "up":
		return m.navigateCursor(msg.String()), nil
	case "ctrl+d", "pgdown":
		return m.pageScroll(msg.String()), nil
	case "ctrl+u", "pgup":
		return m.pageScroll(msg.String()), nil
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searchMode = false
		if msg.String() == "esc" {
			m.searchQuery = ""
			m.rebuildVisibleRows()
			m.cursor = min(m.cursor, max(len(m.visibleRows)-1, 0))
		}
		return m, nil
	case "backspace":
		if m.searchCursor > 0 {
			runes := []rune(m.searchQuery)
			m.searchQuery = string(runes[:m.searchCursor-1]) + string(runes[m.searchCursor:])
			m.searchCursor--
			m.rebuildVisibleRows()
			m.cursor = min(m.cursor, max(len(m.visibleRows)-1, 0))
		}
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "left":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil
	case "right":
		if m.searchCursor < len([]rune(m.searchQuery)) {
			m.searchCursor++
		}
		return m, nil
	}

	r := msg.Runes
	if len(r) == 0 {
		return m, nil
	}
	runes := []rune(m.searchQuery)
	m.searchQuery = string(runes[:m.searchCursor]) + string(r) + string(runes[m.searchCursor:])
	m.searchCursor += len(r)
	m.rebuildVisibleRows()
	m.cursor = min(m.cursor, max(len(m.visibleRows)-1, 0))
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filterMode = false
		if msg.String() == "esc" {
			m.filterQuery = ""
			m.rebuildVisibleRows()
			m.cursor = min(m.cursor, max(len(m.visibleRows)-1, 0))
		}
		return m, nil
	case "backspace":
		if m.filterCursor > 0 {
			runes := []rune(m.filterQuery)
			m.filterQuery = string(runes[:m.filterCursor-1]) + string(runes[m.filterCursor:])
			m.filterCursor--
			m.rebuildVisibleRows()
			m.cursor = min(m.cursor, max(len(m.visibleRows)-1, 0))
		}
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "left":
		if m.filterCursor > 0 {
			m.filterCursor--
		}
		return m, nil
	case "right":
		if m.filterCursor < len([]rune(m.filterQuery)) {
			m.filterCursor++
		}
		return m, nil
	}

	r := msg.Runes
	if len(r) == 0 {
		return m, nil
	}
	runes := []rune(m.filterQuery)
	m.filterQuery = string(runes[:m.filterCursor]) + string(r) + string(runes[m.filterCursor:])
	m.filterCursor += len(r)
	m.rebuildVisibleRows()
	m.cursor = min(m.cursor, max(len(m.visibleRows)-1, 0))
	return m, nil
}

func (m Model) pageScroll(key string) Model {
	half := max(m.listHeight(1)/2, 1)
	switch key {
	case "ctrl+d", "pgdown":
		m.cursor = min(m.cursor+half, max(len(m.visibleRows)-1, 0))
		if len(m.visibleRows) > 0 && m.cursor == len(m.visibleRows)-1 {
			m.follow = true
		}
	case "ctrl+u", "pgup":
		m.cursor = max(m.cursor-half, 0)
		m.follow = false
	}
	return m
}

func (m Model) navigateCursor(key string) Model {
	switch key {
	case "up":
		if m.cursor > 0 {
			m.cursor--
			m.follow = false
		}
	case "down":
		if len(m.visibleRows) > 0 && m.cursor < len(m.visibleRows)-1 {
			m.cursor++
		}
		if len(m.visibleRows) > 0 && m.cursor == len(m.visibleRows)-1 {
			m.follow = true
		}
	}
	return m
}

func (m Model) clearFilter() Model {
	changed := false
	if m.searchQuery != "" {
		m.searchQuery = ""
		changed = true
	}
	if m.filterQuery != "" {
		m.filterQuery = ""
		changed = true
	}
	if changed {
		m.rebuildVisibleRows()
		m.cursor = min(m.cursor, max(len(m.visibleRows)-1, 0))
	}
	return m
}
