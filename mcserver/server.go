// Package mcserver implements the connection driver and listener that
// together accept a Minecraft Java Edition client, run it through the
// Start -> Status|Login -> Play state machine, and hand authenticated
// clients off to a gameplay layer.
package mcserver

import (
	"context"
	"log/slog"
	"net"

	"github.com/go-mclib/mcserver/crypto"
	"github.com/go-mclib/mcserver/sessionserver"
)

// Server holds everything shared, read-only, across every connection: the
// process keypair, the session-server client, and the two rendezvous
// sinks the gameplay layer drains.
type Server struct {
	keypair       crypto.Keypair
	sessionClient *sessionserver.Client
	logger        *slog.Logger
	metrics       *Metrics

	newClient     chan *Client
	statusRequest chan StatusRequest
}

// Option configures optional Server behavior.
type Option func(*Server)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics attaches a Metrics instance; without it, metric updates are
// no-ops.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithSessionClient overrides the default Mojang session-server client,
// primarily so tests can point it at a local stand-in.
func WithSessionClient(c *sessionserver.Client) Option {
	return func(s *Server) { s.sessionClient = c }
}

// New builds a Server around a freshly generated keypair. newClient and
// statusRequest are the two capacity-0 sinks the gameplay layer must drain:
// a connection blocks at each hand-off until the gameplay layer receives.
func New(newClient chan *Client, statusRequest chan StatusRequest, opts ...Option) *Server {
	s := &Server{
		keypair:       crypto.GenerateKeypair(),
		sessionClient: sessionserver.NewClient(),
		logger:        slog.Default(),
		newClient:     newClient,
		statusRequest: statusRequest,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run binds addr and accepts connections until ctx is cancelled, spawning
// one goroutine per accepted connection. A single failed Accept is logged
// and does not stop the listener; ctx cancellation closes the listener and
// returns nil. In-flight connection goroutines are not cancelled by Run
// returning or by ctx; they run to their own completion.
func (s *Server) Run(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("accept failed", "err", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.ConnectionsAccepted.Inc()
		}
		go s.handleConnection(context.WithoutCancel(ctx), conn)
	}
}
