package mcserver

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/go-mclib/mcserver/crypto"
	"github.com/go-mclib/mcserver/protocol"
	"github.com/go-mclib/mcserver/wire"
)

// verifyTokenLen is the size of the random verify_token sent with
// EncryptionRequest.
const verifyTokenLen = 16

// writePacket marshals v, frames it under id, and writes the frame to w.
func writePacket(w io.Writer, codec *protocol.Codec, id int32, v any) error {
	payload, err := wire.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal packet %d: %w", id, err)
	}
	frame, err := codec.Encode(id, payload)
	if err != nil {
		return fmt.Errorf("frame packet %d: %w", id, err)
	}
	_, err = w.Write(frame)
	return err
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	if s.metrics != nil {
		s.metrics.ActiveConnections.Inc()
		defer s.metrics.ActiveConnections.Dec()
	}
	defer conn.Close()

	logger := s.logger.With("remote", conn.RemoteAddr())

	codec := &protocol.Codec{State: protocol.StateStart}
	fr := newFrameReader(conn, codec)

	f, err := fr.next()
	if err != nil {
		logger.Debug("reading handshake", "err", err)
		return
	}
	var hs protocol.Handshake
	if _, err := wire.Unmarshal(f.Payload, &hs); err != nil {
		logger.Warn("decoding handshake", "err", err)
		return
	}
	if err := hs.Validate(); err != nil {
		logger.Warn("invalid handshake", "err", err)
		return
	}

	if hs.WantsStatus() {
		s.handleStatus(ctx, conn, fr, logger)
		return
	}
	s.handleLogin(ctx, conn, fr, logger)
}

func (s *Server) handleStatus(ctx context.Context, conn net.Conn, fr *frameReader, logger *slog.Logger) {
	fr.codec.State = protocol.StateStatus

	f, err := fr.next()
	if err != nil {
		logger.Debug("reading status handshake", "err", err)
		return
	}
	if len(f.Payload) != 0 {
		logger.Warn("status handshake carried a non-empty payload")
		return
	}

	if s.metrics != nil {
		s.metrics.StatusRequests.Inc()
	}

	status, err := requestStatus(ctx, s.statusRequest)
	if err != nil {
		logger.Info("status request unanswered", "err", err)
		return
	}

	doc, err := renderStatusJSON(status)
	if err != nil {
		logger.Error("rendering status JSON", "err", err)
		return
	}
	if err := writePacket(conn, fr.codec, protocol.IDStatusResponse, &protocol.StatusResponse{JSON: doc}); err != nil {
		logger.Debug("writing status response", "err", err)
		return
	}

	for {
		f, err := fr.next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("status loop ended", "err", err)
			}
			return
		}
		if f.ID != protocol.IDPing {
			logger.Warn("unexpected packet id in status loop", "id", f.ID)
			return
		}
		var ping protocol.Ping
		if _, err := wire.Unmarshal(f.Payload, &ping); err != nil {
			logger.Warn("decoding ping", "err", err)
			return
		}
		if err := writePacket(conn, fr.codec, protocol.IDPong, &ping); err != nil {
			logger.Debug("writing pong", "err", err)
			return
		}
	}
}

func (s *Server) handleLogin(ctx context.Context, conn net.Conn, fr *frameReader, logger *slog.Logger) {
	fr.codec.State = protocol.StateLogin
	if s.metrics != nil {
		s.metrics.LoginAttempts.Inc()
	}
	failure := func(reason string) {
		if s.metrics != nil {
			s.metrics.LoginFailures.WithLabelValues(reason).Inc()
		}
	}

	f, err := fr.next()
	if err != nil {
		logger.Debug("reading login start", "err", err)
		failure("read_error")
		return
	}
	var ls protocol.LoginStart
	if _, err := wire.Unmarshal(f.Payload, &ls); err != nil {
		logger.Warn("decoding login start", "err", err)
		failure("decode_error")
		return
	}
	if err := ls.Validate(); err != nil {
		logger.Warn("invalid login start", "err", err)
		failure("invalid_username")
		return
	}
	logger = logger.With("username", ls.Username)

	verifyToken := make([]byte, verifyTokenLen)
	if _, err := rand.Read(verifyToken); err != nil {
		logger.Error("generating verify token", "err", err)
		failure("internal_error")
		return
	}

	encReq := protocol.EncryptionRequest{
		ServerID:    "",
		PublicKey:   s.keypair.Public,
		VerifyToken: verifyToken,
	}
	if err := writePacket(conn, fr.codec, protocol.IDEncryptionRequest, &encReq); err != nil {
		logger.Debug("writing encryption request", "err", err)
		failure("write_error")
		return
	}

	f, err = fr.next()
	if err != nil {
		logger.Debug("reading encryption response", "err", err)
		failure("read_error")
		return
	}
	var encResp protocol.EncryptionResponse
	if _, err := wire.Unmarshal(f.Payload, &encResp); err != nil {
		logger.Warn("decoding encryption response", "err", err)
		failure("decode_error")
		return
	}
	if err := encResp.Validate(); err != nil {
		logger.Warn("invalid encryption response", "err", err)
		failure("invalid_ciphertext_length")
		return
	}

	sharedSecret, err := s.keypair.Decrypt(encResp.SharedSecret)
	if err != nil {
		logger.Warn("decrypting shared secret", "err", err)
		failure("decrypt_error")
		return
	}
	decryptedToken, err := s.keypair.Decrypt(encResp.VerifyToken)
	if err != nil {
		logger.Warn("decrypting verify token", "err", err)
		failure("decrypt_error")
		return
	}
	if !bytes.Equal(decryptedToken, verifyToken) {
		logger.Warn("verify token mismatch")
		failure("verify_token_mismatch")
		return
	}
	if len(sharedSecret) != 16 {
		logger.Warn("shared secret has wrong length", "len", len(sharedSecret))
		failure("invalid_shared_secret_length")
		return
	}

	digest := crypto.ServerDigest(sharedSecret, s.keypair.Public)
	resp, err := s.sessionClient.HasJoined(ctx, ls.Username, digest)
	if err != nil {
		logger.Warn("session server rejected client", "err", err)
		failure("session_server_rejected")
		return
	}
	uuidStr, err := resp.DashedUUID()
	if err != nil {
		logger.Warn("malformed profile id", "err", err)
		failure("malformed_profile_id")
		return
	}

	loginSuccess := protocol.LoginSuccess{UUID: uuidStr, Username: ls.Username}
	if err := writePacket(conn, fr.codec, protocol.IDLoginSuccess, &loginSuccess); err != nil {
		logger.Debug("writing login success", "err", err)
		failure("write_error")
		return
	}

	stream, err := crypto.NewStream(conn, sharedSecret, fr.leftover())
	if err != nil {
		logger.Error("upgrading to encrypted transport", "err", err)
		failure("internal_error")
		return
	}
	writer := crypto.Autoflush{Stream: stream}

	fr.conn = stream
	fr.codec.State = protocol.StatePlay

	client := newClient(ls.Username)
	if err := sendToGame(ctx, s.newClient, client); err != nil {
		logger.Warn("handing client to game layer", "err", err)
		failure("handoff_failed")
		return
	}
	if s.metrics != nil {
		s.metrics.LoginSuccesses.Inc()
	}
	logger.Info("client authenticated")

	s.runPlayLoop(ctx, fr, writer, client, logger)
}

// runPlayLoop forwards raw frames in both directions between the wire and
// the client's channels until either side ends. The core does not
// interpret Play-state packets; see protocol.Codec's pass-through
// behavior in StatePlay.
func (s *Server) runPlayLoop(ctx context.Context, fr *frameReader, w io.Writer, client *Client, logger *slog.Logger) {
	readErr := make(chan error, 1)
	go func() {
		defer close(client.inbound)
		for {
			f, err := fr.next()
			if err != nil {
				readErr <- err
				return
			}
			payload := append([]byte(nil), f.Payload...)
			select {
			case client.inbound <- Packet{ID: f.ID, Payload: payload}:
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			}
		}
	}()

	for {
		select {
		case pkt, ok := <-client.outbound:
			if !ok {
				return
			}
			frame, err := fr.codec.Encode(pkt.ID, pkt.Payload)
			if err != nil {
				logger.Warn("encoding outbound play packet", "id", pkt.ID, "err", err)
				continue
			}
			if _, err := w.Write(frame); err != nil {
				logger.Debug("play loop write ended", "err", err)
				return
			}
		case err := <-readErr:
			if !errors.Is(err, io.EOF) {
				logger.Debug("play loop read ended", "err", err)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}
