package tarantool

import (
	"fmt"

	"github.com/lattice-db/tarantool-go/internal/wire"
)

// readLoop is the connection's sole reader: it owns the socket's read
// side for the connection's lifetime. Any I/O or decode failure ends
// the loop, and the errgroup that supervises it propagates that error
// into Conn.teardown via group.Wait.
func (c *Conn) readLoop() error {
	for {
		if err := c.setReadDeadline(); err != nil {
			return err
		}
		payload, err := wire.ReadFrame(c.br)
		if err != nil {
			return fmt.Errorf("tarantool: read frame: %w", &IoError{Op: "read", Err: err})
		}

		header, data, errMsg, err := wire.DecodeResponse(payload)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProtocol, err)
		}

		c.opts.logger.Debugf("recv sync=%d code=%d rows=%d", header.Sync, header.Code, len(data))
		c.pending.deliver(header.Sync, header, data, errMsg, nil)
	}
}
