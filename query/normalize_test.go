package query_test

import (
	"testing"

	"github.com/lattice-db/tarantool-go/query"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"string literal single quote", "return box.space.users:get('alice')", "return box.space.users:get('?')"},
		{"string literal double quote", `return box.space.users:get("alice")`, "return box.space.users:get('?')"},
		{"escaped quote", `return box.space.users:get('it\'s')`, "return box.space.users:get('?')"},
		{"numeric literal", "return box.space.users:get(42)", "return box.space.users:get(?)"},
		{"float literal", "return box.space.users.score > 3.14", "return box.space.users.score > ?"},
		{"in list", "return box.space.users:select({1, 2, 3})", "return box.space.users:select({?, ?, ?})"},
		{"mixed", "return box.space.users:get(42, 'bob')", "return box.space.users:get(?, '?')"},
		{"whitespace collapse", "return  box.space.users\n\t:get(1)", "return box.space.users :get(?)"},
		{"leading trailing space", "  return 1  ", "return ?"},
		{"no replace in identifier", "return box.space.t1.id", "return box.space.t1.id"},
		{"negative number", "return x == -5", "return x == -?"},
		{"multiple string literals", "box.space.t:insert({'x', 'y'})", "box.space.t:insert({'?', '?'})"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := query.Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q)\n got  %q\n want %q", tt.in, got, tt.want)
			}
		})
	}
}
