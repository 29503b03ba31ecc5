package wire_test

import (
	"bytes"
	"testing"

	"github.com/lattice-db/tarantool-go/internal/wire"
	"github.com/vmihailenco/msgpack/v5"
)

// encodeRawResponse builds a response payload (no length prefix): a
// header map, and a body map only when body is non-nil. A nil body
// means the payload ends after the header, the shape the server uses
// for commands like PING that never carry one.
func encodeRawResponse(t *testing.T, header map[int]interface{}, body map[int]interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(header); err != nil {
		t.Fatalf("encode header: %v", err)
	}
	if body != nil {
		if err := enc.Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	return buf.Bytes()
}

func TestDecodeResponseWithData(t *testing.T) {
	t.Parallel()

	payload := encodeRawResponse(t,
		map[int]interface{}{0x00: uint64(0), 0x01: uint64(9), 0x05: uint64(3)},
		map[int]interface{}{0x30: []interface{}{[]interface{}{int64(1), "vlad", int64(75)}}},
	)

	header, data, errMsg, err := wire.DecodeResponse(payload)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if header.Code != 0 || header.Sync != 9 || header.SchemaID != 3 {
		t.Fatalf("got header %+v", header)
	}
	if errMsg != "" {
		t.Fatalf("expected no error message, got %q", errMsg)
	}
	if len(data) != 1 {
		t.Fatalf("got %d rows, want 1", len(data))
	}
	row, ok := data[0].([]interface{})
	if !ok || len(row) != 3 {
		t.Fatalf("got row %#v", data[0])
	}
}

func TestDecodeResponseWithError(t *testing.T) {
	t.Parallel()

	payload := encodeRawResponse(t,
		map[int]interface{}{0x00: uint64(1), 0x01: uint64(2)},
		map[int]interface{}{0x31: "Duplicate key exists"},
	)

	header, data, errMsg, err := wire.DecodeResponse(payload)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if header.Code != 1 {
		t.Fatalf("got code %d, want 1", header.Code)
	}
	if data != nil {
		t.Fatalf("expected no data, got %v", data)
	}
	if errMsg != "Duplicate key exists" {
		t.Fatalf("got errMsg %q", errMsg)
	}
}

func TestDecodeResponseNoBody(t *testing.T) {
	t.Parallel()

	payload := encodeRawResponse(t, map[int]interface{}{0x00: uint64(0), 0x01: uint64(4)}, nil)

	header, data, errMsg, err := wire.DecodeResponse(payload)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if header.Sync != 4 {
		t.Fatalf("got sync %d, want 4", header.Sync)
	}
	if data != nil || errMsg != "" {
		t.Fatalf("expected no data and no error message, got data=%v errMsg=%q", data, errMsg)
	}
}

func TestDecodeResponseUnknownHeaderKey(t *testing.T) {
	t.Parallel()

	payload := encodeRawResponse(t,
		map[int]interface{}{0x00: uint64(0), 0x01: uint64(1), 0x99: uint64(1)},
		nil,
	)

	if _, _, _, err := wire.DecodeResponse(payload); err == nil {
		t.Fatal("expected error for unknown header key")
	}
}

func TestDecodeResponseUnknownBodyKey(t *testing.T) {
	t.Parallel()

	payload := encodeRawResponse(t,
		map[int]interface{}{0x00: uint64(0), 0x01: uint64(1)},
		map[int]interface{}{0x99: "garbage"},
	)

	if _, _, _, err := wire.DecodeResponse(payload); err == nil {
		t.Fatal("expected error for unknown body key")
	}
}
