package tarantool

import (
	"fmt"

	"github.com/lattice-db/tarantool-go/internal/wire"
	"github.com/lattice-db/tarantool-go/schema"
)

// Header is the decoded three-entry header of a response frame.
type Header struct {
	Code     uint32
	Sync     uint64
	SchemaID uint32
}

// Response is what every operation returns on success: the response
// header and the decoded Data sequence, each entry wrapped as a Tuple
// for ergonomic coercion.
type Response struct {
	Header Header
	Data   []Tuple
}

func newResponse(h wire.Header, data []interface{}) *Response {
	tuples := make([]Tuple, len(data))
	for i, v := range data {
		tuples[i] = Tuple{row: asSlice(v)}
	}
	return &Response{
		Header: Header{Code: h.Code, Sync: h.Sync, SchemaID: h.SchemaID},
		Data:   tuples,
	}
}

// Rows adapts Data to schema.Response so Conn can be used, via a thin
// wrapper, as a schema.Evaler.
func (r *Response) Rows() []schema.Row {
	rows := make([]schema.Row, len(r.Data))
	for i, t := range r.Data {
		rows[i] = t
	}
	return rows
}

// asSlice normalizes a single Data element to a cell sequence: the
// protocol's own rows already decode as []interface{}, but a scalar or
// map EVAL/CALL return is kept as a one-element row rather than
// dropped.
func asSlice(v interface{}) []interface{} {
	if seq, ok := v.([]interface{}); ok {
		return seq
	}
	return []interface{}{v}
}

// Tuple is one row of response data: an ordered sequence of
// heterogeneous MessagePack-decoded values, with small coercion helpers
// for the common field types.
type Tuple struct {
	row []interface{}
}

// Len returns the number of cells in the tuple.
func (t Tuple) Len() int {
	return len(t.row)
}

// Raw returns the cell at i with no coercion.
func (t Tuple) Raw(i int) interface{} {
	if i < 0 || i >= len(t.row) {
		return nil
	}
	return t.row[i]
}

// AsInt64 coerces the cell at i to int64. It accepts every integer width
// msgpack produces plus float64 (msgpack decodes some integers into
// float64 when the source value round-trips through JSON-ish tooling).
func (t Tuple) AsInt64(i int) (int64, error) {
	v := t.Raw(i)
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: cell %d is %T, not an integer", ErrBadArgument, i, v)
	}
}

// AsUint64 coerces the cell at i to uint64, rejecting negative values.
func (t Tuple) AsUint64(i int) (uint64, error) {
	n, err := t.AsInt64(i)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: cell %d is negative", ErrBadArgument, i)
	}
	return uint64(n), nil
}

// AsString coerces the cell at i to string.
func (t Tuple) AsString(i int) (string, error) {
	v := t.Raw(i)
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: cell %d is %T, not a string", ErrBadArgument, i, v)
	}
	return s, nil
}

// AsFloat64 coerces the cell at i to float64.
func (t Tuple) AsFloat64(i int) (float64, error) {
	v := t.Raw(i)
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: cell %d is %T, not a number", ErrBadArgument, i, v)
	}
}

// AsBool coerces the cell at i to bool.
func (t Tuple) AsBool(i int) (bool, error) {
	v := t.Raw(i)
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: cell %d is %T, not a bool", ErrBadArgument, i, v)
	}
	return b, nil
}

// AsMap coerces the cell at i to a string-keyed map, the shape EVAL
// returns for `box.space.<name>.index`-style introspection calls.
func (t Tuple) AsMap(i int) (map[string]interface{}, error) {
	v := t.Raw(i)
	switch m := v.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: cell %d is %T, not a map", ErrBadArgument, i, v)
	}
}
