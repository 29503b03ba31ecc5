// Package wire implements the length-prefixed MessagePack framing used
// by the server: a 5-byte prefix (a MessagePack uint32 marker byte
// followed by a big-endian payload length) wraps a header map and a
// body value. It knows nothing about sync-tag bookkeeping or sockets;
// callers hand it a reader or writer and get back decoded/encoded bytes.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// lengthMarker is the MessagePack tag for a fixed-width uint32, reused
// here as the frame's reserved first byte regardless of how the length
// that follows it was produced.
const lengthMarker = 0xce

const (
	headerKeyCode     = 0x00
	headerKeySync     = 0x01
	headerKeySchemaID = 0x05
)

// Header is the two-or-three-entry map every request and response frame
// opens with. SchemaID is only meaningful on responses.
type Header struct {
	Code     uint32
	Sync     uint64
	SchemaID uint32
}

// EncodeRequest serializes a request frame: the 5-byte length prefix,
// the header map, and the body (nil when absent). The length prefix is
// produced by writing a zero placeholder first and patching bytes 1-4
// in place once the true length is known, the same two-pass approach
// the protocol's reference client uses, rather than measuring the body
// up front.
func EncodeRequest(code uint32, sync uint64, body map[int]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write([]byte{lengthMarker, 0, 0, 0, 0})

	enc := msgpack.NewEncoder(&buf)
	header := map[int]interface{}{
		headerKeyCode: code,
		headerKeySync: sync,
	}
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("wire: encode header: %w", err)
	}

	if body == nil {
		if err := enc.Encode(nil); err != nil {
			return nil, fmt.Errorf("wire: encode nil body: %w", err)
		}
	} else if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("wire: encode body: %w", err)
	}

	out := buf.Bytes()
	binary.BigEndian.PutUint32(out[1:5], uint32(len(out)-5))
	return out, nil
}

// ReadFrame reads one complete frame from r: the 5-byte prefix, then
// exactly that many payload bytes. It returns the raw payload, ready to
// be handed to DecodeResponse.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [5]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("wire: read length prefix: %w", err)
	}
	if prefix[0] != lengthMarker {
		return nil, fmt.Errorf("%w: unexpected length marker 0x%02x", ErrMalformed, prefix[0])
	}
	length := binary.BigEndian.Uint32(prefix[1:5])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read payload: %w", err)
	}
	return payload, nil
}
