package tarantool

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lattice-db/tarantool-go/internal/iproto"
)

// TraceEvent is a best-effort observation of one request's dispatch or
// completion. A connection with no subscriber drops these rather than
// block request dispatch; see Conn.Trace.
type TraceEvent struct {
	ID   string
	Sync uint64
	Code iproto.CommandCode
	// Expr carries the CALL function name or EVAL expression for those
	// two commands, and is empty for every other command.
	Expr      string
	StartTime time.Time
	Duration  time.Duration
	Err       string
}

const traceBufferSize = 256

// traceHub fans dispatch/completion notices out to at most one
// subscriber, matching the reference codebase's single-subscriber
// Events() channel shape.
type traceHub struct {
	mu sync.Mutex // guards ch; see conn.go for the broader connection lock discipline
	ch chan TraceEvent
}

func newTraceHub() *traceHub {
	return &traceHub{}
}

// subscribe closes and replaces any previous channel, then returns the
// new one.
func (h *traceHub) subscribe() <-chan TraceEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ch != nil {
		close(h.ch)
	}
	h.ch = make(chan TraceEvent, traceBufferSize)
	return h.ch
}

// publish delivers ev to the current subscriber, if any, dropping it
// silently when the channel is full or there is no subscriber.
func (h *traceHub) publish(ev TraceEvent) {
	h.mu.Lock()
	ch := h.ch
	h.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

func (h *traceHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ch != nil {
		close(h.ch)
		h.ch = nil
	}
}

func newTraceID() string {
	return uuid.NewString()
}
