package tui

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lattice-db/tarantool-go"
)

type filterKind int

const (
	filterText     filterKind = iota // plain text substring match against Expr or the command name
	filterDuration                   // d>100ms, d<10ms
	filterError                      // "error" keyword
	filterCommand                    // cmd:select, cmd:call, etc.
)

type durationOp int

const (
	durGT durationOp = iota // >
	durLT                   // <
)

type filterCondition struct {
	kind filterKind

	text string // filterText

	durOp    durationOp // filterDuration
	durValue time.Duration

	cmdPattern string // filterCommand, matched case-insensitively against Code.String()

	syncEq    uint64 // filterText variant for a #<sync> tag, used only when syncIsSet
	syncIsSet bool
}

var (
	reDuration = regexp.MustCompile(`^d([><])(\d+(?:\.\d+)?)(us|µs|ms|s|m)$`)
	reSync     = regexp.MustCompile(`^#(\d+)$`)
)

func parseFilter(input string) []filterCondition {
	tokens := strings.Fields(input)
	conds := make([]filterCondition, 0, len(tokens))

	for _, tok := range tokens {
		if c, ok := parseDuration(tok); ok {
			conds = append(conds, c)
			continue
		}
		if strings.ToLower(tok) == "error" {
			conds = append(conds, filterCondition{kind: filterError})
			continue
		}
		if c, ok := parseCommand(tok); ok {
			conds = append(conds, c)
			continue
		}
		if m := reSync.FindStringSubmatch(tok); m != nil {
			n, err := strconv.ParseUint(m[1], 10, 64)
			if err == nil {
				conds = append(conds, filterCondition{kind: filterText, syncEq: n, syncIsSet: true})
				continue
			}
		}
		conds = append(conds, filterCondition{kind: filterText, text: strings.ToLower(tok)})
	}
	return conds
}

func parseDuration(tok string) (filterCondition, bool) {
	m := reDuration.FindStringSubmatch(tok)
	if m == nil {
		return filterCondition{}, false
	}
	op := durGT
	if m[1] == "<" {
		op = durLT
	}
	raw := m[2] + unitSuffix(m[3])
	d, err := time.ParseDuration(raw)
	if err != nil {
		return filterCondition{}, false
	}
	return filterCondition{kind: filterDuration, durOp: op, durValue: d}, true
}

func unitSuffix(unit string) string {
	switch unit {
	case "us", "µs":
		return "us"
	case "s":
		return "s"
	case "m":
		return "m"
	}
	return "ms"
}

func parseCommand(tok string) (filterCondition, bool) {
	lower := strings.ToLower(tok)
	if !strings.HasPrefix(lower, "cmd:") {
		return filterCondition{}, false
	}
	pattern := lower[4:]
	if pattern == "" {
		return filterCondition{}, false
	}
	return filterCondition{kind: filterCommand, cmdPattern: pattern}, true
}

func (c filterCondition) matchesEvent(ev tarantool.TraceEvent) bool {
	switch c.kind {
	case filterText:
		if c.syncIsSet {
			return ev.Sync == c.syncEq
		}
		return strings.Contains(strings.ToLower(ev.Expr), c.text) ||
			strings.Contains(strings.ToLower(ev.Code.String()), c.text)
	case filterDuration:
		switch c.durOp {
		case durGT:
			return ev.Duration > c.durValue
		case durLT:
			return ev.Duration < c.durValue
		}
	case filterError:
		return ev.Err != ""
	case filterCommand:
		return strings.Contains(strings.ToLower(ev.Code.String()), c.cmdPattern)
	}
	return false
}

func matchAllConditions(ev tarantool.TraceEvent, conds []filterCondition) bool {
	for _, c := range conds {
		if !c.matchesEvent(ev) {
			return false
		}
	}
	return true
}

func describeFilter(input string) string {
	conds := parseFilter(input)
	if len(conds) == 0 {
		return input
	}
	var parts []string
	for _, c := range conds {
		switch c.kind {
		case filterText:
			if c.syncIsSet {
				parts = append(parts, "sync:"+strconv.FormatUint(c.syncEq, 10))
				continue
			}
			parts = append(parts, "text:"+c.text)
		case filterDuration:
			op := ">"
			if c.durOp == durLT {
				op = "<"
			}
			parts = append(parts, "d"+op+c.durValue.String())
		case filterError:
			parts = append(parts, "error")
		case filterCommand:
			parts = append(parts, "cmd:"+c.cmdPattern)
		}
	}
	return strings.Join(parts, " ")
}
