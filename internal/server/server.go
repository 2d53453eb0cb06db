// Package server exposes the noiseguard ops endpoint: health probes,
// Prometheus metrics, and a live metrics stream over WebSocket for UIs that
// poll the gate state at frame-ish rates without scraping.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noiseguard/noiseguard/internal/health"
	"github.com/noiseguard/noiseguard/pkg/denoise"
)

// defaultStreamInterval is how often /ws/metrics pushes a snapshot. 100 ms is
// ten frames; fast enough for a level meter, slow enough to be negligible.
const defaultStreamInterval = 100 * time.Millisecond

// Option configures a [Server] during construction.
type Option func(*Server)

// WithStreamInterval overrides the /ws/metrics push interval.
func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

// Server is the ops HTTP server. It owns no pipeline state; it reads the
// processor's lock-free metrics block through the snapshot function it was
// given.
type Server struct {
	addr           string
	healthHandler  *health.Handler
	snapshot       func() denoise.Snapshot
	streamInterval time.Duration
}

// New creates a Server listening on addr. snapshot is called per scrape or
// stream tick and must be safe from any goroutine (the processor's metrics
// block satisfies that).
func New(addr string, healthHandler *health.Handler, snapshot func() denoise.Snapshot, opts ...Option) *Server {
	s := &Server{
		addr:           addr,
		healthHandler:  healthHandler,
		snapshot:       snapshot,
		streamInterval: defaultStreamInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler, exposed separately so tests can drive
// it through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.healthHandler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ws/metrics", s.serveMetricsWS)
	return mux
}

// Run serves until ctx is cancelled, then shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ops server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// serveMetricsWS upgrades the connection and pushes metric snapshots at the
// stream interval until the client goes away.
func (s *Server) serveMetricsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := wsjson.Write(ctx, conn, snapshotPayload(s.snapshot())); err != nil {
			return
		}
	}
}

// payload is the JSON shape pushed over /ws/metrics.
type payload struct {
	InputRMS        float32 `json:"input_rms"`
	OutputRMS       float32 `json:"output_rms"`
	VADProbability  float32 `json:"vad_probability"`
	CurrentGain     float32 `json:"current_gain"`
	FramesProcessed uint64  `json:"frames_processed"`
}

func snapshotPayload(s denoise.Snapshot) payload {
	return payload{
		InputRMS:        s.InputRMS,
		OutputRMS:       s.OutputRMS,
		VADProbability:  s.VADProbability,
		CurrentGain:     s.CurrentGain,
		FramesProcessed: s.FramesProcessed,
	}
}
