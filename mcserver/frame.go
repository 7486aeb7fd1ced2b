package mcserver

import (
	"io"

	"github.com/go-mclib/mcserver/protocol"
)

const readChunkSize = 4096

// frameReader pulls length-prefixed frames off conn, buffering whatever a
// partial read leaves over. Any bytes left in buf when the underlying
// transport is swapped out (the cipher upgrade at login) are the ones that
// must be handed to crypto.NewStream as already-buffered plaintext.
type frameReader struct {
	conn  io.Reader
	codec *protocol.Codec
	buf   []byte
}

func newFrameReader(conn io.Reader, codec *protocol.Codec) *frameReader {
	return &frameReader{conn: conn, codec: codec}
}

// next blocks until one full frame is available, reading from conn as
// needed, and returns it along with any error protocol.Codec.Decode or the
// underlying read produced.
func (r *frameReader) next() (protocol.Frame, error) {
	for {
		f, n, ok, err := r.codec.Decode(r.buf)
		if err != nil {
			r.buf = r.buf[n:]
			return protocol.Frame{}, err
		}
		if ok {
			r.buf = r.buf[n:]
			return f, nil
		}
		chunk := make([]byte, readChunkSize)
		n2, err := r.conn.Read(chunk)
		if n2 > 0 {
			// Decode whatever arrived before surfacing any error alongside
			// it; a Read may legally return data and io.EOF together.
			r.buf = append(r.buf, chunk[:n2]...)
			continue
		}
		if err != nil {
			return protocol.Frame{}, err
		}
	}
}

// leftover returns and clears whatever bytes have already been read off
// conn but not yet consumed into a frame.
func (r *frameReader) leftover() []byte {
	b := r.buf
	r.buf = nil
	return b
}
