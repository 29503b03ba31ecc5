// Package tarantool is a client for the server's binary iproto wire
// protocol: SELECT/INSERT/REPLACE/UPDATE/DELETE/UPSERT, CALL/EVAL, AUTH
// and PING, pipelined over a single TCP connection and demultiplexed by
// sync tag.
package tarantool

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lattice-db/tarantool-go/internal/auth"
	"github.com/lattice-db/tarantool-go/schema"
	"golang.org/x/sync/errgroup"
)

// Conn is a single connection to the server. It is safe for concurrent
// use by multiple goroutines: the socket write side, the pending-request
// table, and the schema cache each have their own exclusion discipline.
type Conn struct {
	opts        resolvedOpts
	conn        net.Conn
	br          *bufio.Reader
	encodedSalt string

	writeMu sync.Mutex

	pending *pendingTable
	schema  *schema.Cache
	trace   *traceHub

	group    *errgroup.Group
	groupCtx context.Context
	cancel   context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// Connect dials addr ("host:port"), performs the greeting/AUTH
// handshake, and starts the background reader and keepalive tasks. The
// returned Conn is ready for use; callers must call Close when done.
func Connect(ctx context.Context, addr string, opts Opts) (*Conn, error) {
	ro := opts.resolve()

	if ro.connectTimeout <= 0 || ro.dnsTimeout <= 0 {
		return nil, ErrTimeout
	}

	dialTimeout := ro.connectTimeout
	if ro.dnsTimeout < dialTimeout {
		dialTimeout = ro.dnsTimeout
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, dialTimeout)
	defer cancelDial()

	netConn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tarantool: dial %s: %w", addr, &IoError{Op: "dial", Err: err})
	}

	groupCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		opts:    ro,
		conn:    netConn,
		br:      bufio.NewReader(netConn),
		pending: newPendingTable(),
		schema:  schema.NewCache(),
		trace:   newTraceHub(),
		cancel:  cancel,
	}
	c.group, c.groupCtx = errgroup.WithContext(groupCtx)

	if err := c.handshake(); err != nil {
		c.teardown(err)
		return nil, err
	}

	c.group.Go(c.readLoop)
	if ro.readTimeout > 0 {
		c.group.Go(c.keepaliveLoop)
	}

	go func() {
		err := c.group.Wait()
		c.teardown(err)
	}()

	if !ro.anonymous() {
		if err := c.authenticate(ctx, ro.user, ro.password); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

func (c *Conn) handshake() error {
	greeting := make([]byte, auth.GreetingSize)
	if err := c.setReadDeadline(); err != nil {
		return err
	}
	if _, err := readFull(c.br, greeting); err != nil {
		return fmt.Errorf("tarantool: read greeting: %w", &IoError{Op: "greeting", Err: err})
	}

	version, encodedSalt, err := auth.ParseGreeting(greeting)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	c.opts.logger.Infof("connected: %s", version)
	c.encodedSalt = encodedSalt
	return nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *Conn) setReadDeadline() error {
	if c.opts.readTimeout <= 0 {
		return ErrTimeout
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.opts.readTimeout))
}

func (c *Conn) setWriteDeadline() error {
	if c.opts.writeTimeout <= 0 {
		return ErrTimeout
	}
	return c.conn.SetWriteDeadline(time.Now().Add(c.opts.writeTimeout))
}

// Trace returns a channel of best-effort TraceEvents for this
// connection's lifetime. At most one subscriber is supported; a second
// call closes and replaces the channel returned by the first.
func (c *Conn) Trace() <-chan TraceEvent {
	return c.trace.subscribe()
}

// Close shuts the connection down: it stops the background tasks,
// closes the socket, and fails every pending caller with ErrClosed.
// Idempotent.
func (c *Conn) Close() error {
	c.cancel()
	c.teardown(ErrClosed)
	return nil
}

// teardown runs once: it records the terminal cause, fails every
// pending caller, and closes the trace channel. Safe to call multiple
// times; only the first cause sticks.
func (c *Conn) teardown(cause error) {
	c.closeOnce.Do(func() {
		if cause == nil {
			cause = ErrClosed
		} else if cause != ErrClosed {
			cause = fmt.Errorf("%w: %w", ErrClosed, cause)
		}
		c.opts.logger.Infof("connection closed: %v", cause)
		c.closeErr = cause
		c.opts.metrics.ReaderRestarted()
		c.pending.failAll(cause)
		c.trace.close()
		_ = c.conn.Close()
	})
}

func (c *Conn) String() string {
	if c.conn == nil {
		return "tarantool.Conn(closed)"
	}
	return fmt.Sprintf("tarantool.Conn(%s)", c.conn.RemoteAddr())
}
