package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

const rsaKeyBits = 1024

// Keypair holds a server's RSA keypair in the DER encodings the login
// protocol sends over the wire: Public is SubjectPublicKeyInfo, Private is
// PKCS#1.
type Keypair struct {
	Public  []byte
	Private []byte
}

// GenerateKeypair creates a fresh 1024-bit RSA keypair. It panics on
// failure: key generation happens once at server startup and a failure
// here means the process cannot serve logins at all.
func GenerateKeypair() Keypair {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		panic(fmt.Sprintf("crypto: generating RSA keypair: %v", err))
	}

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		panic(fmt.Sprintf("crypto: marshaling RSA public key: %v", err))
	}

	return Keypair{
		Public:  pub,
		Private: x509.MarshalPKCS1PrivateKey(key),
	}
}

// Decrypt performs PKCS#1 v1.5 decryption of ciphertext using the keypair's
// private half.
func (k Keypair) Decrypt(ciphertext []byte) ([]byte, error) {
	priv, err := x509.ParsePKCS1PrivateKey(k.Private)
	if err != nil {
		return nil, fmt.Errorf("crypto: parsing private key: %w", err)
	}
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("crypto: RSA decrypt: %w", err)
	}
	return plain, nil
}
