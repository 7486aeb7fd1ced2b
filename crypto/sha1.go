package crypto

import (
	"crypto/sha1"
	"encoding/hex"
	"hash"
	"strings"
)

// minecraftDigest accumulates written bytes into a Minecraft-style
// signed-hex SHA1 digest: a hash whose first byte has the high bit set is
// rendered as its two's-complement magnitude with a leading '-', and
// leading zeroes are trimmed. ServerDigest is the only production path
// through it.
type minecraftDigest struct {
	hash.Hash
}

func newMinecraftDigest() *minecraftDigest {
	return &minecraftDigest{sha1.New()}
}

func (m *minecraftDigest) hexDigest() string {
	sum := m.Sum(nil)

	negative := (sum[0] & 0x80) == 0x80
	if negative {
		sum = twosComplement(sum)
	}

	res := strings.TrimLeft(hex.EncodeToString(sum), "0")
	if res == "" {
		res = "0"
	}
	if negative {
		res = "-" + res
	}

	return res
}

// ServerDigest computes the login server digest: the Minecraft-style
// signed-hex SHA1 of sharedSecret concatenated with the server's DER public
// key, in that order.
func ServerDigest(sharedSecret, publicKey []byte) string {
	d := newMinecraftDigest()
	d.Write(sharedSecret)
	d.Write(publicKey)
	return d.hexDigest()
}

// MinecraftSHA1 computes the Minecraft-style signed-hex SHA1 digest of a
// single string, the degenerate one-argument case ServerDigest generalizes
// from. It exists to check the digest construction itself against the
// three reference vectors, independent of the two-argument concatenation
// ServerDigest performs.
func MinecraftSHA1(s string) string {
	d := newMinecraftDigest()
	d.Write([]byte(s))
	return d.hexDigest()
}

// twosComplement negates p in place, treating it as a big-endian integer.
func twosComplement(p []byte) []byte {
	carry := true
	for i := len(p) - 1; i >= 0; i-- {
		p[i] = ^p[i]
		if carry {
			carry = p[i] == 0xff
			p[i]++
		}
	}
	return p
}
