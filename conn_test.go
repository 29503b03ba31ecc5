package tarantool_test

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/lattice-db/tarantool-go"
	"github.com/lattice-db/tarantool-go/internal/iproto"
	"github.com/lattice-db/tarantool-go/internal/wire"
	"github.com/vmihailenco/msgpack/v5"
)

// fakeServer speaks just enough of the protocol to drive Conn through
// its public API: a greeting, PING, SELECT (against one fixed tuple),
// INSERT (echoing the inserted tuple back), and AUTH (always accepted). It runs on a real net.Listener rather
// than net.Pipe because Conn issues SetReadDeadline/SetWriteDeadline,
// which net.Pipe's in-memory conn does not support.
type fakeServer struct {
	ln net.Listener
}

func startFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln}
	go s.acceptLoop(t)
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

func (s *fakeServer) acceptLoop(t *testing.T) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serve(t, conn)
	}
}

func (s *fakeServer) serve(t *testing.T, conn net.Conn) {
	defer conn.Close()

	greeting := make([]byte, 128)
	copy(greeting, "Fake Tarantool 1.0 (Binary)")
	greeting[63] = '\n'
	// 32 bytes of salt, base64 padded to the 44-character line the
	// client reads; any valid base64 of at least 20 raw bytes works
	// since this fake server never verifies the AUTH scramble.
	copy(greeting[64:], "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=")
	greeting[127] = '\n'
	if _, err := conn.Write(greeting); err != nil {
		return
	}

	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		code, syncTag, body, err := decodeRequest(payload)
		if err != nil {
			return
		}

		var resp []byte
		switch iproto.CommandCode(code) {
		case iproto.Ping, iproto.Auth:
			resp, err = wire.EncodeRequest(uint32(iproto.OK), syncTag, nil)
		case iproto.Select:
			resp, err = wire.EncodeRequest(uint32(iproto.OK), syncTag, map[int]interface{}{
				0x30: []interface{}{[]interface{}{int64(1), "vlad", int64(75)}},
			})
		case iproto.Insert:
			tuple := body[int(iproto.Tuple)]
			resp, err = wire.EncodeRequest(uint32(iproto.OK), syncTag, map[int]interface{}{
				0x30: []interface{}{tuple},
			})
		default:
			resp, err = wire.EncodeRequest(uint32(iproto.Error), syncTag, map[int]interface{}{
				0x31: "unsupported in fake server",
			})
		}
		if err != nil || resp == nil {
			return
		}
		if _, err := conn.Write(resp); err != nil {
			return
		}
	}
}

// decodeRequest decodes a request frame's header (Code, Sync) and its
// body as a generic int-keyed map, good enough for this fake server's
// needs without depending on the client-side wire.DecodeResponse (whose
// body keys are response-shaped, not request-shaped).
func decodeRequest(payload []byte) (code uint64, syncTag uint64, body map[int]interface{}, err error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))

	n, err := dec.DecodeMapLen()
	if err != nil {
		return 0, 0, nil, err
	}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeInt64()
		if err != nil {
			return 0, 0, nil, err
		}
		v, err := dec.DecodeUint64()
		if err != nil {
			return 0, 0, nil, err
		}
		switch key {
		case 0x00:
			code = v
		case 0x01:
			syncTag = v
		}
	}

	bn, err := dec.DecodeMapLen()
	if err != nil {
		return code, syncTag, nil, nil // no body, e.g. PING
	}
	body = make(map[int]interface{}, bn)
	for i := 0; i < bn; i++ {
		key, err := dec.DecodeInt64()
		if err != nil {
			return 0, 0, nil, err
		}
		v, err := dec.DecodeInterface()
		if err != nil {
			return 0, 0, nil, err
		}
		body[int(key)] = v
	}
	return code, syncTag, body, nil
}

func dialFake(t *testing.T, s *fakeServer) *tarantool.Conn {
	t.Helper()
	conn, err := tarantool.Connect(t.Context(), s.addr(), tarantool.Opts{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestPingRoundTrip(t *testing.T) {
	t.Parallel()

	s := startFakeServer(t)
	conn := dialFake(t, s)

	resp, err := conn.Ping(t.Context())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if resp.Header.Code != 0 {
		t.Fatalf("got code %d, want 0", resp.Header.Code)
	}
}

func TestSelectEqualIteratorRoundTrip(t *testing.T) {
	t.Parallel()

	s := startFakeServer(t)
	conn := dialFake(t, s)

	resp, err := conn.Select(t.Context(), int64(512), int64(1), []interface{}{int64(75)}, tarantool.SelectOpts{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("got %d rows, want 1", len(resp.Data))
	}
	name, err := resp.Data[0].AsString(1)
	if err != nil {
		t.Fatalf("AsString: %v", err)
	}
	if name != "vlad" {
		t.Fatalf("got name %q, want vlad", name)
	}
}

func TestInsertRoundTrip(t *testing.T) {
	t.Parallel()

	s := startFakeServer(t)
	conn := dialFake(t, s)

	resp, err := conn.Insert(t.Context(), int64(512), []interface{}{int64(2), "rajesh", int64(10)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("got %d rows, want 1", len(resp.Data))
	}
}

func TestCallAfterCloseFails(t *testing.T) {
	t.Parallel()

	s := startFakeServer(t)
	conn := dialFake(t, s)

	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := conn.Ping(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error from a closed connection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Ping did not return after Close")
	}
}

func TestConnectZeroConnectTimeoutFailsImmediately(t *testing.T) {
	t.Parallel()

	s := startFakeServer(t)
	zero := time.Duration(0)
	_, err := tarantool.Connect(t.Context(), s.addr(), tarantool.Opts{ConnectTimeout: &zero})
	if err == nil {
		t.Fatal("expected ErrTimeout for a zero connect timeout")
	}
}

func TestSyncTagsIncreaseMonotonically(t *testing.T) {
	t.Parallel()

	s := startFakeServer(t)
	conn := dialFake(t, s)

	var lastSync uint64
	for i := 0; i < 5; i++ {
		resp, err := conn.Ping(t.Context())
		if err != nil {
			t.Fatalf("Ping %d: %v", i, err)
		}
		if resp.Header.Sync <= lastSync {
			t.Fatalf("sync tag did not increase: got %d after %d", resp.Header.Sync, lastSync)
		}
		lastSync = resp.Header.Sync
	}
}
