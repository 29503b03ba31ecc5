package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrMalformed marks every decode failure that stems from the payload
// itself rather than the transport: unknown header keys, a body that
// isn't a map, a Data value that isn't a sequence.
var ErrMalformed = errors.New("wire: malformed frame")

const (
	bodyKeyData  = 0x30
	bodyKeyError = 0x31
)

// DecodeResponse decodes a response payload (as produced by ReadFrame)
// into its header and either a Data sequence or a server error string.
// Exactly one of data/errMsg is populated on a nil error; both may be
// empty when the response carries no body at all.
func DecodeResponse(payload []byte) (header Header, data []interface{}, errMsg string, err error) {
	r := bytes.NewReader(payload)
	dec := msgpack.NewDecoder(r)

	n, err := dec.DecodeMapLen()
	if err != nil {
		return Header{}, nil, "", fmt.Errorf("%w: decode header: %v", ErrMalformed, err)
	}

	for i := 0; i < n; i++ {
		key, err := dec.DecodeInt64()
		if err != nil {
			return Header{}, nil, "", fmt.Errorf("%w: decode header key: %v", ErrMalformed, err)
		}
		switch key {
		case headerKeyCode:
			v, err := dec.DecodeUint64()
			if err != nil {
				return Header{}, nil, "", fmt.Errorf("%w: decode header code: %v", ErrMalformed, err)
			}
			header.Code = uint32(v)
		case headerKeySync:
			v, err := dec.DecodeUint64()
			if err != nil {
				return Header{}, nil, "", fmt.Errorf("%w: decode header sync: %v", ErrMalformed, err)
			}
			header.Sync = v
		case headerKeySchemaID:
			v, err := dec.DecodeUint64()
			if err != nil {
				return Header{}, nil, "", fmt.Errorf("%w: decode header schema id: %v", ErrMalformed, err)
			}
			header.SchemaID = uint32(v)
		default:
			return Header{}, nil, "", fmt.Errorf("%w: unknown header key %d", ErrMalformed, key)
		}
	}

	bn, err := dec.DecodeMapLen()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Decoding the next value hit end of stream: no body at all,
			// the shape a PING response (and any other no-body success)
			// takes. Checked by attempting the decode rather than
			// inspecting the source reader's byte count, since the
			// decoder may already have buffered the whole payload ahead
			// of where the reader's own position says it has.
			return header, nil, "", nil
		}
		return Header{}, nil, "", fmt.Errorf("%w: decode body: %v", ErrMalformed, err)
	}
	if bn == 0 {
		return Header{}, nil, "", fmt.Errorf("%w: empty body map", ErrMalformed)
	}

	for i := 0; i < bn; i++ {
		key, err := dec.DecodeInt64()
		if err != nil {
			return Header{}, nil, "", fmt.Errorf("%w: decode body key: %v", ErrMalformed, err)
		}
		switch key {
		case bodyKeyData:
			v, err := dec.DecodeInterface()
			if err != nil {
				return Header{}, nil, "", fmt.Errorf("%w: decode data: %v", ErrMalformed, err)
			}
			seq, ok := v.([]interface{})
			if !ok {
				if v == nil {
					seq = nil
				} else {
					return Header{}, nil, "", fmt.Errorf("%w: data value is not a sequence", ErrMalformed)
				}
			}
			data = seq
		case bodyKeyError:
			s, err := dec.DecodeString()
			if err != nil {
				return Header{}, nil, "", fmt.Errorf("%w: decode error message: %v", ErrMalformed, err)
			}
			errMsg = s
		default:
			return Header{}, nil, "", fmt.Errorf("%w: unknown body key %d", ErrMalformed, key)
		}
	}

	return header, data, errMsg, nil
}
