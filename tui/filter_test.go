package tui //nolint:testpackage // testing internal filter parsing logic

import (
	"testing"
	"time"

	"github.com/lattice-db/tarantool-go"
	"github.com/lattice-db/tarantool-go/internal/iproto"
)

func TestParseFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []filterCondition
	}{
		{name: "empty", input: "", want: nil},
		{
			name:  "plain text",
			input: "users",
			want:  []filterCondition{{kind: filterText, text: "users"}},
		},
		{
			name:  "duration greater than ms",
			input: "d>100ms",
			want:  []filterCondition{{kind: filterDuration, durOp: durGT, durValue: 100 * time.Millisecond}},
		},
		{
			name:  "duration less than us",
			input: "d<500us",
			want:  []filterCondition{{kind: filterDuration, durOp: durLT, durValue: 500 * time.Microsecond}},
		},
		{
			name:  "error keyword",
			input: "error",
			want:  []filterCondition{{kind: filterError}},
		},
		{
			name:  "cmd:select",
			input: "cmd:select",
			want:  []filterCondition{{kind: filterCommand, cmdPattern: "select"}},
		},
		{
			name:  "sync tag",
			input: "#42",
			want:  []filterCondition{{kind: filterText, syncEq: 42, syncIsSet: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := parseFilter(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d conditions, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("condition %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterConditionMatchesEvent(t *testing.T) {
	t.Parallel()

	ev := tarantool.TraceEvent{
		Sync:     7,
		Code:     iproto.Select,
		Expr:     "box.space.users:get(1)",
		Duration: 150 * time.Millisecond,
	}

	tests := []struct {
		name string
		cond filterCondition
		want bool
	}{
		{"text match", filterCondition{kind: filterText, text: "users"}, true},
		{"text no match", filterCondition{kind: filterText, text: "posts"}, false},
		{"sync match", filterCondition{kind: filterText, syncEq: 7, syncIsSet: true}, true},
		{"sync no match", filterCondition{kind: filterText, syncEq: 8, syncIsSet: true}, false},
		{"duration gt", filterCondition{kind: filterDuration, durOp: durGT, durValue: 100 * time.Millisecond}, true},
		{"duration lt", filterCondition{kind: filterDuration, durOp: durLT, durValue: 100 * time.Millisecond}, false},
		{"no error", filterCondition{kind: filterError}, false},
		{"command match", filterCondition{kind: filterCommand, cmdPattern: "select"}, true},
		{"command no match", filterCondition{kind: filterCommand, cmdPattern: "insert"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cond.matchesEvent(ev); got != tt.want {
				t.Errorf("matchesEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescribeFilter(t *testing.T) {
	t.Parallel()
	got := describeFilter("error cmd:select d>10ms")
	want := "error cmd:select d>10ms"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
