package tarantool

import (
	"context"
	"errors"
	"fmt"

	"github.com/lattice-db/tarantool-go/internal/iproto"
	"github.com/lattice-db/tarantool-go/schema"
)

// schemaEvaler adapts Conn.Eval to schema.Evaler: schema cannot import
// this package (it would cycle back), so Conn satisfies the interface
// through this thin wrapper instead of directly.
type schemaEvaler struct{ conn *Conn }

func (s schemaEvaler) Eval(ctx context.Context, expr string, args []interface{}) (schema.Response, error) {
	return s.conn.Eval(ctx, expr, args)
}

// ParseSchema refreshes the connection's schema cache by introspecting
// box.space. Subsequent space and index names passed to Select, Insert,
// Replace, Update, Delete and Upsert resolve against the new snapshot; a prior snapshot is kept until this
// completes successfully.
func (c *Conn) ParseSchema(ctx context.Context) error {
	fresh, err := schema.Refresh(ctx, schemaEvaler{conn: c})
	if err != nil {
		return wrapSchemaErr(err)
	}
	c.schema.Swap(fresh)
	return nil
}

func wrapSchemaErr(err error) error {
	var nr *schema.NotResolvedError
	if errors.As(err, &nr) {
		return &NotResolvedError{Kind: nr.Kind, Name: nr.Name}
	}
	return err
}

// resolveSpace accepts either a space name (string) or a numeric id and
// returns the numeric id.
func (c *Conn) resolveSpace(spaceNameOrID interface{}) (int64, error) {
	switch v := spaceNameOrID.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case string:
		id, err := c.schema.ResolveSpace(v)
		if err != nil {
			return 0, wrapSchemaErr(err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: space identifier must be a string or integer, got %T", ErrBadArgument, v)
	}
}

// resolveIndex accepts either an index name (string) or a numeric id and
// returns the numeric id, resolving against whichever cached space
// matches spaceNameOrID.
func (c *Conn) resolveIndex(spaceNameOrID, indexNameOrID interface{}) (int64, error) {
	switch v := indexNameOrID.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case string:
		id, err := c.schema.ResolveIndex(spaceNameOrID, v)
		if err != nil {
			return 0, wrapSchemaErr(err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: index identifier must be a string or integer, got %T", ErrBadArgument, v)
	}
}

func resolveIterator(it interface{}) (iproto.Iterator, error) {
	switch v := it.(type) {
	case nil:
		return iproto.IterEqual, nil
	case iproto.Iterator:
		return v, nil
	case int:
		return iproto.Iterator(v), nil
	case string:
		resolved, ok := iproto.ResolveIteratorAlias(v)
		if !ok {
			return 0, fmt.Errorf("%w: unknown iterator alias %q", ErrBadArgument, v)
		}
		return resolved, nil
	default:
		return 0, fmt.Errorf("%w: unsupported iterator value %T", ErrBadArgument, v)
	}
}

// SelectOpts carries SELECT's optional fields; the zero value selects
// with iterator Equal, offset 0, and the protocol's default limit.
type SelectOpts struct {
	Limit    int64
	Offset   int64
	Iterator interface{} // iproto.Iterator, an alias string, or nil
}

// Select issues a SELECT against space/index (each either a name or a
// numeric id) matching key.
func (c *Conn) Select(ctx context.Context, space, index interface{}, key []interface{}, opts SelectOpts) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(space, index)
	if err != nil {
		return nil, err
	}
	iter, err := resolveIterator(opts.Iterator)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = iproto.DefaultLimit
	}

	body := map[int]interface{}{
		int(iproto.SpaceID):     spaceID,
		int(iproto.IndexID):     indexID,
		int(iproto.Limit):       limit,
		int(iproto.Offset):      opts.Offset,
		int(iproto.IteratorKey): uint8(iter),
		int(iproto.Key):         keyOrEmpty(key),
	}
	return c.send(ctx, iproto.Select, body, "")
}

// Get is a convenience over Select: primary index (0), limit 1.
func (c *Conn) Get(ctx context.Context, space interface{}, key []interface{}) (*Response, error) {
	return c.Select(ctx, space, int64(0), key, SelectOpts{Limit: 1})
}

// Insert inserts tuple into space, failing if its primary key already
// exists.
func (c *Conn) Insert(ctx context.Context, space interface{}, tuple []interface{}) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		int(iproto.SpaceID): spaceID,
		int(iproto.Tuple):   tuple,
	}
	return c.send(ctx, iproto.Insert, body, "")
}

// Replace inserts tuple into space, overwriting any existing tuple with
// the same primary key.
func (c *Conn) Replace(ctx context.Context, space interface{}, tuple []interface{}) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		int(iproto.SpaceID): spaceID,
		int(iproto.Tuple):   tuple,
	}
	return c.send(ctx, iproto.Replace, body, "")
}

// Update applies ops to the tuple matched by key in space/index.
func (c *Conn) Update(ctx context.Context, space, index interface{}, key []interface{}, ops []interface{}) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(space, index)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		int(iproto.SpaceID): spaceID,
		int(iproto.IndexID): indexID,
		int(iproto.Key):     keyOrEmpty(key),
		int(iproto.Tuple):   ops,
	}
	return c.send(ctx, iproto.Update, body, "")
}

// Delete removes the tuple matched by key in space/index.
func (c *Conn) Delete(ctx context.Context, space, index interface{}, key []interface{}) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	indexID, err := c.resolveIndex(space, index)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		int(iproto.SpaceID): spaceID,
		int(iproto.IndexID): indexID,
		int(iproto.Key):     keyOrEmpty(key),
	}
	return c.send(ctx, iproto.Delete, body, "")
}

// Upsert inserts tuple, or applies ops to the existing tuple with the
// same primary key if one already exists.
func (c *Conn) Upsert(ctx context.Context, space interface{}, tuple []interface{}, ops []interface{}) (*Response, error) {
	spaceID, err := c.resolveSpace(space)
	if err != nil {
		return nil, err
	}
	body := map[int]interface{}{
		int(iproto.SpaceID): spaceID,
		int(iproto.Tuple):   tuple,
		int(iproto.Ops):     ops,
	}
	return c.send(ctx, iproto.Upsert, body, "")
}

// Call invokes the stored function named fn with args.
func (c *Conn) Call(ctx context.Context, fn string, args []interface{}) (*Response, error) {
	body := map[int]interface{}{
		int(iproto.FunctionName): fn,
		int(iproto.Tuple):        argsOrEmpty(args),
	}
	return c.send(ctx, iproto.Call, body, fn)
}

// Eval evaluates a Lua expression with args.
func (c *Conn) Eval(ctx context.Context, expr string, args []interface{}) (*Response, error) {
	body := map[int]interface{}{
		int(iproto.Expression): expr,
		int(iproto.Tuple):      argsOrEmpty(args),
	}
	return c.send(ctx, iproto.Eval, body, expr)
}

// Ping round-trips a PING and returns the server's response. It does not
// report the elapsed wall time.
func (c *Conn) Ping(ctx context.Context) (*Response, error) {
	return c.send(ctx, iproto.Ping, nil, "")
}

func keyOrEmpty(key []interface{}) []interface{} {
	if key == nil {
		return []interface{}{}
	}
	return key
}

func argsOrEmpty(args []interface{}) []interface{} {
	if args == nil {
		return []interface{}{}
	}
	return args
}
