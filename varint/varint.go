// Package varint implements the variable-length integer encoding used
// throughout the Minecraft Java Edition protocol: 7 payload bits per byte,
// the high bit marking continuation. Negative values are sign-extended to
// the full 32 or 64 bits before encoding, so a -1 VarInt always occupies 5
// bytes and a -1 VarLong always occupies 10.
package varint

import (
	"errors"
	"io"
)

// MaxVarIntLen and MaxVarLongLen bound how many bytes a well-formed
// VarInt/VarLong may ever use.
const (
	MaxVarIntLen  = 5
	MaxVarLongLen = 10
)

// ErrTooBig is returned when a VarInt/VarLong has not terminated within
// MaxVarIntLen/MaxVarLongLen bytes (every one of them has the continuation
// bit set).
var ErrTooBig = errors.New("varint: value too big")

// ErrShortBuffer is returned by the Peek family when the supplied slice
// ends before a terminating (non-continuation) byte was found. It signals
// "not a malformed varint, just not all of it has arrived yet" to a pull
// parser such as protocol.Codec; callers decoding an already
// fully-buffered payload should treat it as a hard unexpected-EOF error.
var ErrShortBuffer = errors.New("varint: buffer ends mid-value")

// Len32 returns the number of bytes WriteInt32 would produce for v.
func Len32(v int32) int {
	return lenU64(uint64(uint32(v)))
}

// Len64 returns the number of bytes WriteInt64 would produce for v.
func Len64(v int64) int {
	return lenU64(uint64(v))
}

func lenU64(v uint64) int {
	n := 0
	for {
		n++
		v >>= 7
		if v == 0 {
			return n
		}
	}
}

// AppendInt32 encodes v as a VarInt and appends it to dst.
func AppendInt32(dst []byte, v int32) []byte {
	return appendU64(dst, uint64(uint32(v)), MaxVarIntLen)
}

// AppendInt64 encodes v as a VarLong and appends it to dst.
func AppendInt64(dst []byte, v int64) []byte {
	return appendU64(dst, uint64(v), MaxVarLongLen)
}

func appendU64(dst []byte, v uint64, max int) []byte {
	for i := 0; i < max; i++ {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			break
		}
	}
	return dst
}

// WriteInt32 writes v to w as a VarInt.
func WriteInt32(w io.Writer, v int32) error {
	var buf [MaxVarIntLen]byte
	n := encodeU64(buf[:], uint64(uint32(v)))
	_, err := w.Write(buf[:n])
	return err
}

// WriteInt64 writes v to w as a VarLong.
func WriteInt64(w io.Writer, v int64) error {
	var buf [MaxVarLongLen]byte
	n := encodeU64(buf[:], uint64(v))
	_, err := w.Write(buf[:n])
	return err
}

func encodeU64(buf []byte, v uint64) int {
	n := 0
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			buf[n] = b | 0x80
			n++
		} else {
			buf[n] = b
			n++
			return n
		}
	}
}

// PeekInt32 reads a VarInt from the front of b without requiring the
// caller to know its length in advance. It returns the decoded value and
// the number of bytes consumed. If b ends before a terminating byte is
// seen, it returns ErrShortBuffer so a streaming caller can wait for more
// data; if the first MaxVarIntLen bytes all carry the continuation bit, it
// returns ErrTooBig.
func PeekInt32(b []byte) (value int32, n int, err error) {
	v, n, err := peekU64(b, MaxVarIntLen)
	if err != nil {
		return 0, 0, err
	}
	return int32(uint32(v)), n, nil
}

// PeekInt64 is PeekInt32's VarLong counterpart.
func PeekInt64(b []byte) (value int64, n int, err error) {
	v, n, err := peekU64(b, MaxVarLongLen)
	if err != nil {
		return 0, 0, err
	}
	return int64(v), n, nil
}

func peekU64(b []byte, max int) (uint64, int, error) {
	var value uint64
	for i := 0; i < len(b) && i < max; i++ {
		cur := b[i]
		value |= uint64(cur&0x7F) << uint(7*i)
		if cur&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	if len(b) >= max {
		return 0, 0, ErrTooBig
	}
	return 0, 0, ErrShortBuffer
}

// ReadInt32 reads a VarInt from r, failing with ErrTooBig after
// MaxVarIntLen continuation bytes.
func ReadInt32(r io.Reader) (int32, error) {
	v, err := readU64(r, MaxVarIntLen)
	if err != nil {
		return 0, err
	}
	return int32(uint32(v)), nil
}

// ReadInt64 reads a VarLong from r, failing with ErrTooBig after
// MaxVarLongLen continuation bytes.
func ReadInt64(r io.Reader) (int64, error) {
	v, err := readU64(r, MaxVarLongLen)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func readU64(r io.Reader, max int) (uint64, error) {
	var value uint64
	var b [1]byte
	for i := 0; i < max; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		value |= uint64(b[0]&0x7F) << uint(7*i)
		if b[0]&0x80 == 0 {
			return value, nil
		}
	}
	return 0, ErrTooBig
}
