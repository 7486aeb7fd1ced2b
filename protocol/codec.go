package protocol

import (
	"fmt"

	"github.com/go-mclib/mcserver/varint"
)

// Packet ids, scoped by connection state and direction. Two packets can
// legally share a numeric id in the same state when they travel in
// opposite directions (e.g. Login id 0x00 is LoginStart inbound and
// Disconnect outbound).
const (
	IDHandshake int32 = 0

	IDStatusHandshake int32 = 0
	IDPing            int32 = 1

	IDLoginStart          int32 = 0
	IDEncryptionResponse  int32 = 1

	IDStatusResponse int32 = 0
	IDPong           int32 = 1

	IDDisconnect        int32 = 0
	IDEncryptionRequest int32 = 1
	IDLoginSuccess      int32 = 2
)

// Frame is a decoded (packet-id, payload) pair, prior to any
// packet-specific structural decode.
type Frame struct {
	ID      int32
	Payload []byte
}

// Codec tracks which connection state a stream is in and uses that state
// to pick the incoming/outgoing packet-id tables. The zero value starts in
// StateStart, matching every new connection.
type Codec struct {
	State State
}

// Decode attempts to pull one frame from the front of buf.
//
// If buf does not yet hold a complete frame (the length prefix or the
// payload it announces hasn't fully arrived), Decode returns ok=false and a
// nil error; the caller should retry once more bytes have arrived, having
// consumed nothing. A malformed length or id is reported as a non-nil error
// with n=0; nothing past it can be framed. A well-formed frame whose id is
// unknown for the current state is also an error, but n covers the whole
// offending frame, so a caller that chooses to keep the connection alive
// can skip it and still read the frames behind it.
func (c *Codec) Decode(buf []byte) (frame Frame, n int, ok bool, err error) {
	total, lenN, err := varint.PeekInt32(buf)
	if err == varint.ErrShortBuffer {
		return Frame{}, 0, false, nil
	}
	if err != nil {
		return Frame{}, 0, false, fmt.Errorf("%w: frame length: %v", ErrInvalidData, err)
	}
	if total < 0 {
		return Frame{}, 0, false, fmt.Errorf("%w: negative frame length", ErrInvalidData)
	}
	end := lenN + int(total)
	if end > len(buf) {
		return Frame{}, 0, false, nil
	}
	body := buf[lenN:end]

	id, idN, err := varint.PeekInt32(body)
	if err == varint.ErrShortBuffer {
		return Frame{}, 0, false, fmt.Errorf("%w: frame too short for packet id", ErrInvalidData)
	}
	if err != nil {
		return Frame{}, 0, false, fmt.Errorf("%w: packet id: %v", ErrInvalidData, err)
	}

	if !c.incomingIDKnown(id) {
		return Frame{}, end, false, fmt.Errorf("%w: unknown packet id %d for state %s", ErrInvalidData, id, c.State)
	}

	return Frame{ID: id, Payload: body[idN:]}, end, true, nil
}

func (c *Codec) incomingIDKnown(id int32) bool {
	switch c.State {
	case StateStart:
		return id == IDHandshake
	case StateStatus:
		return id == IDStatusHandshake || id == IDPing
	case StateLogin:
		return id == IDLoginStart || id == IDEncryptionResponse
	case StatePlay:
		// The core implements no Play-state packet catalog of its own; it
		// still frames and hands off any well-formed id to the caller.
		return id >= 0
	default:
		return false
	}
}

// Encode wraps a packet's already-marshaled payload in a length-prefixed
// frame, after checking that id is a legal outgoing id for the codec's
// current state.
func (c *Codec) Encode(id int32, payload []byte) ([]byte, error) {
	if !c.outgoingIDKnown(id) {
		return nil, fmt.Errorf("%w: id %d in state %s", ErrUnsupported, id, c.State)
	}
	idLen := varint.Len32(id)
	total := idLen + len(payload)
	buf := make([]byte, 0, varint.Len32(int32(total))+total)
	buf = varint.AppendInt32(buf, int32(total))
	buf = varint.AppendInt32(buf, id)
	buf = append(buf, payload...)
	return buf, nil
}

func (c *Codec) outgoingIDKnown(id int32) bool {
	switch c.State {
	case StateStatus:
		return id == IDStatusResponse || id == IDPong
	case StateLogin:
		return id == IDDisconnect || id == IDEncryptionRequest || id == IDLoginSuccess
	case StatePlay:
		return id >= 0
	default:
		return false
	}
}
