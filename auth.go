package tarantool

import (
	"context"
	"fmt"

	"github.com/lattice-db/tarantool-go/internal/auth"
	"github.com/lattice-db/tarantool-go/internal/iproto"
)

// authenticate performs the AUTH exchange using the salt captured from
// the greeting during handshake. Any failure, including a ServerError
// from a wrong password, aborts construction.
func (c *Conn) authenticate(ctx context.Context, user, password string) error {
	scramble, err := auth.Scramble(password, c.encodedSalt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	body := map[int]interface{}{
		int(iproto.Username): user,
		int(iproto.Tuple):    []interface{}{"chap-sha1", scramble},
	}

	_, err = c.send(ctx, iproto.Auth, body, "")
	return err
}
