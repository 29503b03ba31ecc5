package tarantool

import (
	"log"
	"os"
)

// Logger receives the connection's info/debug records: the greeting
// banner on connect, reader-task termination, keepalive failures. It is
// intentionally narrow so callers can adapt any structured logger with a
// two-line shim.
type Logger interface {
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger discards every record. It is the default when Opts.Logger
// is nil.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

// StdLogger adapts the standard library's *log.Logger to the Logger
// interface, prefixing debug records so they can be grepped out of a
// shared log stream.
type StdLogger struct {
	*log.Logger
}

// NewStdLogger returns a StdLogger writing to os.Stderr with a
// "tarantool: " prefix and the standard flags, the same shape the
// reference CLI's daemon uses for its own log.Fatal/log.Printf calls.
func NewStdLogger() StdLogger {
	return StdLogger{Logger: log.New(os.Stderr, "tarantool: ", log.LstdFlags)}
}

func (l StdLogger) Infof(format string, args ...interface{}) {
	l.Printf(format, args...)
}

func (l StdLogger) Debugf(format string, args ...interface{}) {
	l.Printf("debug: "+format, args...)
}
