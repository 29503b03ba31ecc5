package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lattice-db/tarantool-go"
)

type exportFormat int

const (
	exportJSON exportFormat = iota
	exportMarkdown
)

func (f exportFormat) ext() string {
	if f == exportMarkdown {
		return "md"
	}
	return "json"
}

type exportEvent struct {
	Sync       uint64 `json:"sync"`
	Command    string `json:"command"`
	Expr       string `json:"expr,omitempty"`
	Time       string `json:"time"`
	DurationMs float64 `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type exportData struct {
	Captured int    `json:"captured"`
	Exported int    `json:"exported"`
	Filter   string `json:"filter"`
	Search   string `json:"search"`
	Period   struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
	Events []exportEvent `json:"events"`
}

// filteredEvents returns the subset of events matching filter and search.
func filteredEvents(events []tarantool.TraceEvent, filterQuery, searchQuery string) []tarantool.TraceEvent {
	matched := matchingEventsFiltered(events, filterQuery, searchQuery)
	result := make([]tarantool.TraceEvent, 0, len(matched))
	for i, ev := range events {
		if matched[i] {
			result = append(result, ev)
		}
	}
	return result
}

func buildExportData(allEvents []tarantool.TraceEvent, filterQuery, searchQuery string) exportData {
	exported := filteredEvents(allEvents, filterQuery, searchQuery)

	var d exportData
	d.Captured = len(allEvents)
	d.Exported = len(exported)
	d.Filter = filterQuery
	d.Search = searchQuery

	if len(exported) > 0 {
		d.Period.Start = formatTime(exported[0].StartTime)
		d.Period.End = formatTime(exported[len(exported)-1].StartTime)
	}

	d.Events = make([]exportEvent, 0, len(exported))
	for _, ev := range exported {
		d.Events = append(d.Events, exportEvent{
			Sync:       ev.Sync,
			Command:    ev.Code.String(),
			Expr:       ev.Expr,
			Time:       formatTime(ev.StartTime),
			DurationMs: float64(ev.Duration.Microseconds()) / 1000,
			Error:      ev.Err,
		})
	}
	return d
}

func renderJSON(allEvents []tarantool.TraceEvent, filterQuery, searchQuery string) (string, error) {
	d := buildExportData(allEvents, filterQuery, searchQuery)
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	return string(b) + "\n", nil
}

func renderMarkdown(allEvents []tarantool.TraceEvent, filterQuery, searchQuery string) string {
	d := buildExportData(allEvents, filterQuery, searchQuery)

	var sb strings.Builder
	sb.WriteString("# tarantool trace export\n\n")
	fmt.Fprintf(&sb, "- Captured: %d requests\n", d.Captured)
	exportLine := fmt.Sprintf("- Exported: %d requests", d.Exported)
	if d.Filter != "" || d.Search != "" {
		var parts []string
		if d.Filter != "" {
			parts = append(parts, "filter: "+d.Filter)
		}
		if d.Search != "" {
			parts = append(parts, "search: "+d.Search)
		}
		exportLine += " (" + strings.Join(parts, ", ") + ")"
	}
	sb.WriteString(exportLine + "\n")
	if d.Period.Start != "" {
		fmt.Fprintf(&sb, "- Period: %s — %s\n", d.Period.Start, d.Period.End)
	}

	sb.WriteString("\n## Requests\n\n")
	sb.WriteString("| # | Sync | Time | Command | Duration | Expr | Error |\n")
	sb.WriteString("|---|------|------|---------|----------|------|-------|\n")
	for i, ev := range d.Events {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s | %s |\n",
			i+1, strconv.FormatUint(ev.Sync, 10), ev.Time, ev.Command,
			formatDurationMs(ev.DurationMs),
			escapeMarkdownPipe(ev.Expr),
			escapeMarkdownPipe(ev.Error),
		)
	}

	return sb.String()
}

func formatDurationMs(ms float64) string {
	switch {
	case ms < 1:
		return fmt.Sprintf("%.0fµs", ms*1000)
	case ms < 1000:
		return fmt.Sprintf("%.1fms", ms)
	default:
		return fmt.Sprintf("%.2fs", ms/1000)
	}
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// writeExport writes filtered events to a file and returns the path.
// dir specifies the output directory; if empty, the current directory is used.
func writeExport(allEvents []tarantool.TraceEvent, filterQuery, searchQuery string, format exportFormat, dir string) (string, error) {
	var content string
	var err error

	switch format {
	case exportJSON:
		content, err = renderJSON(allEvents, filterQuery, searchQuery)
		if err != nil {
			return "", err
		}
	case exportMarkdown:
		content = renderMarkdown(allEvents, filterQuery, searchQuery)
	}

	filename := fmt.Sprintf("tarantool-trace-%s.%s", time.Now().Format("20060102-150405"), format.ext())
	if dir != "" {
		filename = filepath.Join(dir, filename)
	}

	if err := os.WriteFile(filename, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return filename, nil
}
