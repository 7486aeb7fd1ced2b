package protocol

// CurrentProtocolVersion is the only Handshake.ProtocolVersion this core
// accepts (Minecraft 1.13.2, protocol 404).
const CurrentProtocolVersion int32 = 404

const (
	nextStateStatus int32 = 1
	nextStateLogin  int32 = 2
)

// Handshake is the single packet ever read in StateStart. It decides
// whether the connection proceeds into the Status or Login branch.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

// Validate rejects any protocol version other than 404 and any next-state
// value outside status/login.
func (h *Handshake) Validate() error {
	if h.ProtocolVersion != CurrentProtocolVersion {
		return ErrInvalidData
	}
	switch h.NextState {
	case nextStateStatus, nextStateLogin:
		return nil
	default:
		return ErrInvalidData
	}
}

// WantsStatus reports whether this handshake requests the Status branch.
// Validate must have already succeeded.
func (h *Handshake) WantsStatus() bool { return h.NextState == nextStateStatus }

// StatusHandshake has no fields; a well-formed instance is simply empty
// payload. Its Validate is therefore always nil; the emptiness check is
// made by the connection driver on the frame's payload, since neither the
// frame codec nor wire.Unmarshal rejects bytes left unconsumed.
type StatusHandshake struct{}

func (s *StatusHandshake) Validate() error { return nil }

// Ping is echoed unchanged in both directions once status responds, and
// also reused verbatim as Pong's wire shape. The value is a fixed 8-byte
// big-endian integer, not a VarLong.
type Ping struct {
	Value int64 `mc:"fixed"`
}

func (p *Ping) Validate() error { return nil }

// LoginStart is read once at the top of the Login branch.
type LoginStart struct {
	Username string
}

func (l *LoginStart) Validate() error {
	if l.Username == "" {
		return ErrInvalidData
	}
	return nil
}

// EncryptionResponse carries the client's RSA-encrypted shared secret and
// echoed verify token. Both fields are opaque length-prefixed byte blobs,
// each exactly 128 bytes (RSA-1024/PKCS#1v1.5) before decryption is even
// attempted.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

const rsa1024CiphertextLen = 128

func (e *EncryptionResponse) Validate() error {
	if len(e.SharedSecret) != rsa1024CiphertextLen || len(e.VerifyToken) != rsa1024CiphertextLen {
		return ErrInvalidData
	}
	return nil
}

// EncryptionRequest is sent by the server to start the login key exchange.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

func (e *EncryptionRequest) Validate() error { return nil }

// LoginSuccess is sent once, over the still-plaintext transport,
// immediately before the cipher upgrade. UUID is the dashed
// 8-4-4-4-12 string form, matching the pre-1.16 wire shape.
type LoginSuccess struct {
	UUID     string
	Username string
}

func (l *LoginSuccess) Validate() error { return nil }

// Disconnect carries a JSON chat-component reason. The core never emits
// one itself (misbehaving clients are silently dropped) but the type
// exists so a future caller can.
type Disconnect struct {
	Reason string
}

func (d *Disconnect) Validate() error { return nil }

// StatusResponse carries the server-list ping JSON document, already
// rendered to text by the caller (see status.go).
type StatusResponse struct {
	JSON string
}

func (s *StatusResponse) Validate() error { return nil }
