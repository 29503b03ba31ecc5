package tarantool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lattice-db/tarantool-go/internal/iproto"
	"github.com/lattice-db/tarantool-go/internal/wire"
)

// pendingEntry is a single-shot rendezvous sink: the reader task
// delivers exactly one response (or the caller abandons it on
// cancellation) before it is removed from the table.
type pendingEntry struct {
	ch        chan wire.Header
	data      []interface{}
	errMsg    string
	decodeErr error
	dispatch  time.Time
}

type pendingTable struct {
	mu       sync.Mutex
	nextSync uint64
	entries  map[uint64]*pendingEntry
	closed   bool
	closeErr error
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[uint64]*pendingEntry), nextSync: 1}
}

// register allocates the next sync tag and inserts its pending entry.
// It fails immediately if the table has already been torn down.
func (t *pendingTable) register() (uint64, *pendingEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, nil, t.closeErr
	}
	syncTag := t.nextSync
	t.nextSync++
	entry := &pendingEntry{ch: make(chan wire.Header, 1), dispatch: time.Now()}
	t.entries[syncTag] = entry
	return syncTag, entry, nil
}

// deliver routes a decoded response to its pending entry, if the caller
// hasn't already abandoned it. Returns false if syncTag is unknown.
func (t *pendingTable) deliver(syncTag uint64, h wire.Header, data []interface{}, errMsg string, decodeErr error) bool {
	t.mu.Lock()
	entry, ok := t.entries[syncTag]
	if ok {
		delete(t.entries, syncTag)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	entry.data = data
	entry.errMsg = errMsg
	entry.decodeErr = decodeErr
	entry.ch <- h
	return true
}

// abandon removes syncTag's entry without delivering anything, used
// when a caller's context is cancelled while waiting.
func (t *pendingTable) abandon(syncTag uint64) {
	t.mu.Lock()
	delete(t.entries, syncTag)
	t.mu.Unlock()
}

// failAll empties the table, used on connection teardown.
func (t *pendingTable) failAll(cause error) {
	t.mu.Lock()
	t.closed = true
	t.closeErr = cause
	entries := t.entries
	t.entries = make(map[uint64]*pendingEntry)
	t.mu.Unlock()

	for _, entry := range entries {
		entry.decodeErr = cause
		close(entry.ch)
	}
}

// send assigns a sync tag, writes the frame, and waits for either the
// matching response or the connection's terminal-error signal,
// whichever comes first. A nil body means "no body." detail is recorded
// on published trace events (the CALL function name or EVAL expression,
// empty for every other command).
func (c *Conn) send(ctx context.Context, code iproto.CommandCode, body map[int]interface{}, detail string) (*Response, error) {
	c.writeMu.Lock()
	syncTag, entry, err := c.pending.register()
	if err != nil {
		c.writeMu.Unlock()
		return nil, err
	}

	frame, err := wire.EncodeRequest(uint32(code), syncTag, body)
	if err != nil {
		c.writeMu.Unlock()
		c.pending.abandon(syncTag)
		return nil, fmt.Errorf("tarantool: encode %s: %w", code, err)
	}

	writeErr := c.writeFrame(frame)
	c.writeMu.Unlock()
	if writeErr != nil {
		c.pending.abandon(syncTag)
		return nil, fmt.Errorf("tarantool: write %s: %w", code, &IoError{Op: "write", Err: writeErr})
	}

	c.opts.metrics.Dispatched(syncTag)
	traceID := newTraceID()
	c.trace.publish(TraceEvent{ID: traceID, Sync: syncTag, Code: code, Expr: detail, StartTime: entry.dispatch})

	select {
	case h, ok := <-entry.ch:
		c.opts.metrics.Completed(code.String(), time.Since(entry.dispatch))
		if !ok {
			ev := TraceEvent{ID: traceID, Sync: syncTag, Code: code, Expr: detail, StartTime: entry.dispatch, Duration: time.Since(entry.dispatch), Err: c.closeErr.Error()}
			c.trace.publish(ev)
			return nil, c.closeErr
		}
		if entry.decodeErr != nil {
			c.trace.publish(TraceEvent{ID: traceID, Sync: syncTag, Code: code, Expr: detail, StartTime: entry.dispatch, Duration: time.Since(entry.dispatch), Err: entry.decodeErr.Error()})
			return nil, entry.decodeErr
		}
		if iproto.ResponseCode(h.Code).IsError() {
			serr := &ServerError{Message: entry.errMsg}
			c.trace.publish(TraceEvent{ID: traceID, Sync: syncTag, Code: code, Expr: detail, StartTime: entry.dispatch, Duration: time.Since(entry.dispatch), Err: serr.Error()})
			return nil, serr
		}
		c.trace.publish(TraceEvent{ID: traceID, Sync: syncTag, Code: code, Expr: detail, StartTime: entry.dispatch, Duration: time.Since(entry.dispatch)})
		return newResponse(h, entry.data), nil
	case <-ctx.Done():
		c.pending.abandon(syncTag)
		c.opts.metrics.Completed(code.String(), time.Since(entry.dispatch))
		c.trace.publish(TraceEvent{ID: traceID, Sync: syncTag, Code: code, Expr: detail, StartTime: entry.dispatch, Duration: time.Since(entry.dispatch), Err: ctx.Err().Error()})
		return nil, ctx.Err()
	}
}

func (c *Conn) writeFrame(frame []byte) error {
	if err := c.setWriteDeadline(); err != nil {
		return err
	}
	_, err := c.conn.Write(frame)
	return err
}
