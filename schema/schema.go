// Package schema caches the server's space and index name-to-id
// mapping, populated by issuing EVAL introspection calls against
// box.space. It depends only on a narrow Evaler interface so it never
// imports the connection package, the same "depend on the smallest
// local interface" shape the reference codebase uses for its
// proxy.Proxy consumers.
package schema

import (
	"context"
	"fmt"
	"sync"
)

// Response is the minimal shape schema needs from an EVAL reply: rows
// of cells, each coercible to the scalar types box.space introspection
// returns.
type Response interface {
	Rows() []Row
}

// Row is one decoded tuple cell sequence.
type Row interface {
	Len() int
	AsString(i int) (string, error)
	AsInt64(i int) (int64, error)
	AsMap(i int) (map[string]interface{}, error)
}

// Evaler is the connection capability schema needs: the ability to run
// a Lua expression and get back rows.
type Evaler interface {
	Eval(ctx context.Context, expr string, args []interface{}) (Response, error)
}

// Index is one named index within a space.
type Index struct {
	ID int64
}

// Space is one named space: its numeric id and its indexes by name.
type Space struct {
	ID      int64
	Indexes map[string]Index
}

// Cache is a client-side, read-mostly snapshot of space and index
// names. It is never mutated by request traffic, only by Refresh.
type Cache struct {
	mu     sync.RWMutex
	spaces map[string]Space
}

// NewCache returns an empty cache. Operations resolving names against
// an empty cache fail with NotResolved until Refresh populates it.
func NewCache() *Cache {
	return &Cache{spaces: make(map[string]Space)}
}

// Refresh re-populates the cache from the server: it lists box.space,
// then for each space name fetches its numeric id and its index table.
// The result replaces any previously cached schema atomically; a
// partial failure leaves the prior schema untouched.
func Refresh(ctx context.Context, e Evaler) (*Cache, error) {
	names, err := spaceNames(ctx, e)
	if err != nil {
		return nil, err
	}

	spaces := make(map[string]Space, len(names))
	for _, name := range names {
		sp, err := loadSpace(ctx, e, name)
		if err != nil {
			return nil, err
		}
		spaces[name] = sp
	}

	return &Cache{spaces: spaces}, nil
}

func spaceNames(ctx context.Context, e Evaler) ([]string, error) {
	resp, err := e.Eval(ctx, "return box.space", nil)
	if err != nil {
		return nil, fmt.Errorf("schema: list spaces: %w", err)
	}
	rows := resp.Rows()
	if len(rows) == 0 {
		return nil, nil
	}
	m, err := rows[0].AsMap(0)
	if err != nil {
		return nil, fmt.Errorf("schema: decode box.space: %w", err)
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names, nil
}

func loadSpace(ctx context.Context, e Evaler, name string) (Space, error) {
	idResp, err := e.Eval(ctx, fmt.Sprintf("return box.space.%s.id", name), nil)
	if err != nil {
		return Space{}, fmt.Errorf("schema: id of %s: %w", name, err)
	}
	rows := idResp.Rows()
	if len(rows) == 0 || rows[0].Len() == 0 {
		return Space{}, fmt.Errorf("schema: no id returned for space %s", name)
	}
	id, err := rows[0].AsInt64(0)
	if err != nil {
		return Space{}, fmt.Errorf("schema: decode id of %s: %w", name, err)
	}

	idxResp, err := e.Eval(ctx, fmt.Sprintf("return box.space.%s.index", name), nil)
	if err != nil {
		return Space{}, fmt.Errorf("schema: indexes of %s: %w", name, err)
	}
	indexes := map[string]Index{}
	idxRows := idxResp.Rows()
	if len(idxRows) > 0 && idxRows[0].Len() > 0 {
		m, err := idxRows[0].AsMap(0)
		if err != nil {
			return Space{}, fmt.Errorf("schema: decode indexes of %s: %w", name, err)
		}
		for key, v := range m {
			idxMap, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			idxID, ok := idxMap["id"]
			if !ok {
				continue
			}
			n, ok := toInt64(idxID)
			if !ok {
				continue
			}
			indexes[key] = Index{ID: n}
		}
	}

	return Space{ID: id, Indexes: indexes}, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// Swap atomically replaces c's contents with other's. Used after a
// successful Refresh so in-flight readers never observe a half-built
// schema.
func (c *Cache) Swap(other *Cache) {
	other.mu.RLock()
	spaces := other.spaces
	other.mu.RUnlock()

	c.mu.Lock()
	c.spaces = spaces
	c.mu.Unlock()
}

// ResolveSpace returns the numeric id for a space name.
func (c *Cache) ResolveSpace(name string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sp, ok := c.spaces[name]
	if !ok {
		return 0, &NotResolvedError{Kind: "space", Name: name}
	}
	return sp.ID, nil
}

// ResolveIndex returns the numeric id for an index name within a space
// identified either by name or by its already-resolved numeric id.
func (c *Cache) ResolveIndex(spaceNameOrID interface{}, indexName string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sp, ok := c.findSpace(spaceNameOrID)
	if !ok {
		return 0, &NotResolvedError{Kind: "space", Name: fmt.Sprint(spaceNameOrID)}
	}
	idx, ok := sp.Indexes[indexName]
	if !ok {
		return 0, &NotResolvedError{Kind: "index", Name: indexName}
	}
	return idx.ID, nil
}

func (c *Cache) findSpace(spaceNameOrID interface{}) (Space, bool) {
	switch v := spaceNameOrID.(type) {
	case string:
		sp, ok := c.spaces[v]
		return sp, ok
	default:
		id, ok := toInt64(v)
		if !ok {
			return Space{}, false
		}
		for _, sp := range c.spaces {
			if sp.ID == id {
				return sp, true
			}
		}
		return Space{}, false
	}
}

// NotResolvedError is returned when a space or index name has no entry
// in the schema cache.
type NotResolvedError struct {
	Kind string
	Name string
}

func (e *NotResolvedError) Error() string {
	return fmt.Sprintf("schema: %s %q not resolved", e.Kind, e.Name)
}
