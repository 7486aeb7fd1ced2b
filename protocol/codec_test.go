package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-mclib/mcserver/protocol"
	"github.com/go-mclib/mcserver/wire"
)

func encodeHandshake(t *testing.T, h protocol.Handshake) []byte {
	t.Helper()
	payload, err := wire.Marshal(&h)
	if err != nil {
		t.Fatalf("wire.Marshal: %v", err)
	}
	id := varintOf(protocol.IDHandshake)
	body := append(id, payload...)
	return prefixLen(body)
}

func varintOf(id int32) []byte {
	b, _ := wire.Marshal(&struct{ V int32 }{V: id})
	return b
}

func prefixLen(body []byte) []byte {
	lb, _ := wire.Marshal(&struct{ V int32 }{V: int32(len(body))})
	return append(lb, body...)
}

func TestDecodeHandshakeRoundTrip(t *testing.T) {
	h := protocol.Handshake{ProtocolVersion: 404, ServerAddress: "localhost", ServerPort: 25565, NextState: 1}
	frame := encodeHandshake(t, h)

	c := &protocol.Codec{State: protocol.StateStart}
	f, n, ok, err := c.Decode(frame)
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	if n != len(frame) {
		t.Errorf("consumed %d, want %d", n, len(frame))
	}
	if f.ID != protocol.IDHandshake {
		t.Errorf("ID = %d, want %d", f.ID, protocol.IDHandshake)
	}

	var got protocol.Handshake
	if _, err := wire.Unmarshal(f.Payload, &got); err != nil {
		t.Fatalf("wire.Unmarshal: %v", err)
	}
	if got != h {
		t.Errorf("got %+v, want %+v", got, h)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDecodeNeedsMoreData(t *testing.T) {
	h := protocol.Handshake{ProtocolVersion: 404, ServerAddress: "x", ServerPort: 1, NextState: 1}
	frame := encodeHandshake(t, h)
	c := &protocol.Codec{State: protocol.StateStart}

	for i := 0; i < len(frame); i++ {
		_, _, ok, err := c.Decode(frame[:i])
		if err != nil {
			t.Fatalf("Decode(prefix %d): unexpected err %v", i, err)
		}
		if ok {
			t.Fatalf("Decode(prefix %d): ok=true before full frame arrived", i)
		}
	}
	_, _, ok, err := c.Decode(frame)
	if err != nil || !ok {
		t.Fatalf("Decode(full): ok=%v err=%v", ok, err)
	}
}

func TestDecodeArbitraryChunking(t *testing.T) {
	h := protocol.Handshake{ProtocolVersion: 404, ServerAddress: "y", ServerPort: 2, NextState: 2}
	frame := encodeHandshake(t, h)

	for chunkSize := 1; chunkSize <= len(frame); chunkSize++ {
		c := &protocol.Codec{State: protocol.StateStart}
		var buf []byte
		decoded := false
		for i := 0; i < len(frame); i += chunkSize {
			end := i + chunkSize
			if end > len(frame) {
				end = len(frame)
			}
			buf = append(buf, frame[i:end]...)
			f, n, ok, err := c.Decode(buf)
			if err != nil {
				t.Fatalf("chunk size %d: Decode: %v", chunkSize, err)
			}
			if ok {
				decoded = true
				buf = buf[n:]
				var got protocol.Handshake
				if _, err := wire.Unmarshal(f.Payload, &got); err != nil {
					t.Fatalf("chunk size %d: Unmarshal: %v", chunkSize, err)
				}
				if got != h {
					t.Fatalf("chunk size %d: got %+v, want %+v", chunkSize, got, h)
				}
			}
		}
		if !decoded {
			t.Fatalf("chunk size %d: never decoded a frame", chunkSize)
		}
	}
}

func TestDecodeUnknownIDIsInvalidData(t *testing.T) {
	// Status state only knows ids 0 and 1.
	body := append(varintOf(7), byte(0))
	frame := prefixLen(body)
	c := &protocol.Codec{State: protocol.StateStatus}
	_, n, _, err := c.Decode(frame)
	if !errors.Is(err, protocol.ErrInvalidData) {
		t.Errorf("got %v, want ErrInvalidData", err)
	}
	if n != len(frame) {
		t.Errorf("consumed %d, want the whole offending frame (%d)", n, len(frame))
	}

	// A caller that skips the bad frame can still read the one behind it.
	next := prefixLen(varintOf(protocol.IDStatusHandshake))
	f, n2, ok, err := c.Decode(append(frame[n:], next...))
	if err != nil || !ok {
		t.Fatalf("Decode after skipping bad frame: ok=%v err=%v", ok, err)
	}
	if f.ID != protocol.IDStatusHandshake || n2 != len(next) {
		t.Errorf("got id=%d n=%d, want id=%d n=%d", f.ID, n2, protocol.IDStatusHandshake, len(next))
	}
}

func TestDecodeBadProtocolVersionFailsValidate(t *testing.T) {
	h := protocol.Handshake{ProtocolVersion: 47, ServerAddress: "z", ServerPort: 3, NextState: 1}
	frame := encodeHandshake(t, h)
	c := &protocol.Codec{State: protocol.StateStart}
	f, _, ok, err := c.Decode(frame)
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	var got protocol.Handshake
	if _, err := wire.Unmarshal(f.Payload, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if err := got.Validate(); !errors.Is(err, protocol.ErrInvalidData) {
		t.Errorf("Validate() = %v, want ErrInvalidData", err)
	}
}

func TestEncodeRejectsIDOutsideState(t *testing.T) {
	c := &protocol.Codec{State: protocol.StateStart}
	_, err := c.Encode(protocol.IDStatusResponse, []byte("x"))
	if !errors.Is(err, protocol.ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}

func TestEncodeStatusResponseRoundTrip(t *testing.T) {
	resp := protocol.StatusResponse{JSON: `{"version":{"name":"1.13.2","protocol":404}}`}
	payload, err := wire.Marshal(&resp)
	if err != nil {
		t.Fatalf("wire.Marshal: %v", err)
	}
	c := &protocol.Codec{State: protocol.StateStatus}
	frame, err := c.Encode(protocol.IDStatusResponse, payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	f, n, ok, err := c.Decode(frame)
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	if n != len(frame) {
		t.Errorf("consumed %d, want %d", n, len(frame))
	}
	// Decode validates against incoming ids, not outgoing; Status id 0 is
	// known in both directions, so the frame's id is checked directly.
	if f.ID != protocol.IDStatusResponse {
		t.Errorf("ID = %d, want %d", f.ID, protocol.IDStatusResponse)
	}
	var got protocol.StatusResponse
	if _, err := wire.Unmarshal(f.Payload, &got); err != nil {
		t.Fatalf("wire.Unmarshal: %v", err)
	}
	if got != resp {
		t.Errorf("got %+v, want %+v", got, resp)
	}
}

func TestPingIsFixedEightBytes(t *testing.T) {
	p := protocol.Ping{Value: 0x0123456789abcdef}
	b, err := wire.Marshal(&p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(b) != 8 {
		t.Fatalf("len = %d, want 8", len(b))
	}
	want := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	if !bytes.Equal(b, want) {
		t.Errorf("got % x, want % x", b, want)
	}
}

func TestPlayStateFramesAnyID(t *testing.T) {
	body := append(varintOf(200), []byte("whatever")...)
	frame := prefixLen(body)
	c := &protocol.Codec{State: protocol.StatePlay}
	f, n, ok, err := c.Decode(frame)
	if err != nil || !ok {
		t.Fatalf("Decode: ok=%v err=%v", ok, err)
	}
	if n != len(frame) || f.ID != 200 {
		t.Errorf("got id=%d n=%d, want id=200 n=%d", f.ID, n, len(frame))
	}
	if _, err := c.Encode(200, []byte("whatever")); err != nil {
		t.Errorf("Encode: %v", err)
	}
}

func TestEncryptionResponseValidate(t *testing.T) {
	ok := protocol.EncryptionResponse{SharedSecret: make([]byte, 128), VerifyToken: make([]byte, 128)}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate(128,128) = %v, want nil", err)
	}
	bad := protocol.EncryptionResponse{SharedSecret: make([]byte, 16), VerifyToken: make([]byte, 128)}
	if err := bad.Validate(); !errors.Is(err, protocol.ErrInvalidData) {
		t.Errorf("Validate(16,128) = %v, want ErrInvalidData", err)
	}
}
