package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"io"
)

// bufSize is the default capacity, in each direction, of Stream's internal
// buffers. It is the only tunable the crypto stream exposes.
const bufSize = 8 * 1024

// cfb8Side holds one direction's CFB8 shift-register state: a rolling IV
// re-encrypted one block at a time, with only the first output byte of
// each block ever consumed as keystream. CFB8 is self-synchronizing and
// byte-granular, so encryption and decryption differ only in which byte
// (plaintext or ciphertext) gets shifted back into the register.
type cfb8Side struct {
	block     cipher.Block
	blockSize int
	iv        []byte
	scratch   []byte
	decrypt   bool
}

func newCFB8Side(block cipher.Block, iv []byte, decrypt bool) cfb8Side {
	ivCopy := make([]byte, len(iv))
	copy(ivCopy, iv)
	return cfb8Side{
		block:     block,
		blockSize: block.BlockSize(),
		iv:        ivCopy,
		scratch:   make([]byte, block.BlockSize()),
		decrypt:   decrypt,
	}
}

func (c *cfb8Side) xorKeyStream(dst, src []byte) {
	for i := range src {
		copy(c.scratch, c.iv)

		c.block.Encrypt(c.iv, c.iv)
		keystreamByte := c.iv[0]

		outputByte := src[i] ^ keystreamByte
		dst[i] = outputByte
		copy(c.iv, c.scratch[1:])

		if c.decrypt {
			c.iv[c.blockSize-1] = src[i]
		} else {
			c.iv[c.blockSize-1] = outputByte
		}
	}
}

// Stream wraps a bidirectional byte stream (typically a net.Conn) with
// full-duplex AES-128/CFB8 encryption keyed by a 16-byte shared secret
// (used as both the AES key and the CFB8 IV, per the login handshake). The
// CFB8 shift registers for each direction live directly on Stream as
// enc/dec; there is no standalone generic CFB8 cipher.Stream type to
// route through, since nothing but this connection wrapper ever needs one.
//
// Reads are served from a pending plaintext buffer first (this is how a
// caller hands off any bytes the frame codec had already buffered in plain
// form before the cipher was switched in), then refilled by decrypting
// fresh ciphertext off the underlying conn. Writes are encrypted into an
// internal buffer and only reach the underlying conn on Flush or once the
// buffer fills.
type Stream struct {
	conn io.ReadWriteCloser
	enc  cfb8Side
	dec  cfb8Side

	pending []byte // decrypted plaintext not yet delivered to a Read caller
	outbuf  []byte // encrypted ciphertext not yet flushed to conn
}

// NewStream constructs a Stream over conn keyed by sharedSecret, which must
// be exactly 16 bytes. primed is any plaintext already buffered by the
// caller (e.g. bytes the frame codec read ahead of the cipher upgrade) that
// must be served to the first Read calls before anything is decrypted off
// conn.
func NewStream(conn io.ReadWriteCloser, sharedSecret []byte, primed []byte) (*Stream, error) {
	block, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, err
	}
	s := &Stream{
		conn:   conn,
		enc:    newCFB8Side(block, sharedSecret, false),
		dec:    newCFB8Side(block, sharedSecret, true),
		outbuf: make([]byte, 0, bufSize),
	}
	if len(primed) > 0 {
		s.pending = append(s.pending, primed...)
	}
	return s, nil
}

// Read decrypts from the underlying conn into p, first draining any
// primed/leftover plaintext. It never reports more bytes than it actually
// placed in p.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.pending) > 0 {
		n := copy(p, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}

	want := len(p)
	if want > bufSize {
		want = bufSize
	}
	raw := make([]byte, want)
	n, err := s.conn.Read(raw)
	if n > 0 {
		s.dec.xorKeyStream(p[:n], raw[:n])
	}
	return n, err
}

// Write encrypts p into the internal buffer, flushing to the underlying
// conn whenever the buffer fills. It reports len(p), nil on success exactly
// as io.Writer requires.
func (s *Stream) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		space := bufSize - len(s.outbuf)
		if space == 0 {
			if err := s.Flush(); err != nil {
				return total - len(p), err
			}
			space = bufSize
		}
		n := space
		if n > len(p) {
			n = len(p)
		}
		enc := make([]byte, n)
		s.enc.xorKeyStream(enc, p[:n])
		s.outbuf = append(s.outbuf, enc...)
		p = p[n:]
	}
	return total, nil
}

// Flush drains any buffered ciphertext to the underlying conn.
func (s *Stream) Flush() error {
	if len(s.outbuf) == 0 {
		return nil
	}
	_, err := s.conn.Write(s.outbuf)
	s.outbuf = s.outbuf[:0]
	return err
}

// Close flushes and closes the underlying conn.
func (s *Stream) Close() error {
	err := s.Flush()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// Autoflush wraps a Stream so that every Write is immediately followed by a
// Flush. It sits between the frame codec and the crypto stream so that a
// packet's ciphertext is never left stranded in Stream's internal buffer
// while the writer is idle between packets.
type Autoflush struct {
	*Stream
}

func (a Autoflush) Write(p []byte) (int, error) {
	n, err := a.Stream.Write(p)
	if err != nil {
		return n, err
	}
	if err := a.Stream.Flush(); err != nil {
		return n, err
	}
	return n, nil
}
