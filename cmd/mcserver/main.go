// Command mcserver runs the listener and connection driver against a
// gameplay layer that is, for this binary, a no-op stub: it answers status
// requests with a fixed description and otherwise just logs new clients and
// holds their connections open.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-mclib/mcserver/mcserver"
)

var (
	port        = flag.Int("port", 25565, "The port to bind for Minecraft client connections")
	motd        = flag.String("motd", "A Go Minecraft Server", "The description shown in the server list")
	maxPlayers  = flag.Int("max-players", 20, "The player count advertised in the server list")
	faviconPath = flag.String("favicon", "", "Path to a 64x64 PNG shown in the server list, base64-encoded as a data URI")
	metricsAddr = flag.String("metrics-binding", "", "host:port to serve Prometheus metrics on; empty disables it")
	debug       = flag.Bool("debug", false, "Enable debug logs")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	favicon, err := loadFavicon(*faviconPath)
	if err != nil {
		logger.Error("loading favicon", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	metrics := mcserver.NewMetrics(reg)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			logger.Info("serving metrics", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server exited", "err", err)
			}
		}()
	}

	newClient := make(chan *mcserver.Client)
	statusRequest := make(chan mcserver.StatusRequest)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runGameStub(ctx, logger, newClient, statusRequest, *motd, *maxPlayers, favicon)

	srv := mcserver.New(newClient, statusRequest,
		mcserver.WithLogger(logger),
		mcserver.WithMetrics(metrics),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	addr := net.JoinHostPort("", strconv.Itoa(*port))
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.Run(ctx, addr)
	}()

	select {
	case <-sig:
		logger.Info("shutting down")
		cancel()
	case err := <-errCh:
		if err != nil {
			logger.Error("listener exited", "err", err)
			os.Exit(1)
		}
	}
}

func loadFavicon(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading favicon: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// runGameStub drains both rendezvous sinks for as long as ctx is live. It
// stands in for a real gameplay layer: status requests
// get a fixed description, and new clients are just logged and otherwise
// left alone (their inbound channel is drained so the connection driver
// never blocks on a full buffer).
func runGameStub(ctx context.Context, logger *slog.Logger, newClient <-chan *mcserver.Client, statusRequest <-chan mcserver.StatusRequest, motd string, maxPlayers int, favicon string) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-statusRequest:
			if !ok {
				return
			}
			req.Respond(mcserver.Status{
				PlayersMax:    maxPlayers,
				PlayersOnline: 0,
				Description:   motd,
				Favicon:       favicon,
			})
		case client, ok := <-newClient:
			if !ok {
				return
			}
			logger.Info("client joined", "username", client.Username)
			go func() {
				for range client.Inbound {
					// Discarded: no gameplay layer is wired up.
				}
			}()
		}
	}
}
