package tarantool

import (
	"time"

	"github.com/lattice-db/tarantool-go/internal/iproto"
)

// keepaliveLoop issues PING every read_timeout/3, both as a liveness
// probe and to keep the read side from starving during idle periods.
// It stops when groupCtx is cancelled, which happens as soon as
// readLoop (or this loop itself) returns an error.
func (c *Conn) keepaliveLoop() error {
	period := c.opts.readTimeout / 3
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-c.groupCtx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.send(c.groupCtx, iproto.Ping, nil, ""); err != nil {
				return err
			}
		}
	}
}
