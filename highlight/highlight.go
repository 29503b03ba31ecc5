// Package highlight applies ANSI terminal syntax highlighting to the Lua
// expressions the client sends for EVAL and the function names it sends
// for CALL, for use in the tui detail pane and the single-shot CLI's echo
// of the request it is about to send.
package highlight

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var (
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
)

func init() {
	lexer = lexers.Get("lua")
	formatter = formatters.Get("terminal256")
	style = styles.Get("monokai")
}

// Lua returns the input with ANSI terminal syntax highlighting applied.
// On error or empty input, the original string is returned unchanged.
func Lua(s string) string {
	if s == "" {
		return s
	}

	iterator, err := lexer.Tokenise(nil, s)
	if err != nil {
		return s
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return s
	}

	return strings.TrimRight(buf.String(), "\n")
}
