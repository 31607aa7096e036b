package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/paracord/pkg/config"
	"github.com/Sumatoshi-tech/paracord/pkg/observability"
	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

// internerLabel is the metrics label of the served interner.
const internerLabel = "serve"

type serveOptions struct {
	host     string
	port     int
	snapshot string
}

// InternRequest is the body of POST /intern.
type InternRequest struct {
	Values []string `json:"values"`
}

// InternResponse holds one key per requested value, in request order.
type InternResponse struct {
	Keys []uint32 `json:"keys"`
}

// EntryResponse is returned by GET /resolve and GET /lookup.
type EntryResponse struct {
	Key   uint32 `json:"key"`
	Value string `json:"value"`
}

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	Entries     int     `json:"entries"`
	Shards      int     `json:"shards"`
	MemoryBytes int     `json:"memory_bytes"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServeCommand creates the serve subcommand.
func NewServeCommand() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an interner over HTTP",
		Long: `Serve one string interner over HTTP:

  POST /intern            {"values": [...]} -> {"keys": [...]}
  GET  /resolve?key=N     -> {"key": N, "value": "..."}
  GET  /lookup?value=S    -> {"key": N, "value": "S"}
  GET  /stats             interner statistics
  GET  /metrics           Prometheus metrics

With --snapshot the interner is restored from the file if it exists and
written back on shutdown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port (overrides server.port)")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "snapshot file to restore from and save to")

	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	env, err := setup(cmd, observability.ModeServe)
	if err != nil {
		return err
	}

	defer env.close(context.Background())

	if opts.host != "" {
		env.cfg.Server.Host = opts.host
	}

	if opts.port != 0 {
		env.cfg.Server.Port = opts.port
	}

	from := ""
	if opts.snapshot != "" {
		if _, statErr := os.Stat(opts.snapshot); statErr == nil {
			from = opts.snapshot
		}
	}

	strs, err := env.newInterner(from)
	if err != nil {
		return err
	}

	handler, err := newServer(strs, env.logger, env.cfg).routes(env.providers)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := listenAndServe(ctx, env, handler); err != nil {
		return err
	}

	if opts.snapshot != "" {
		n, err := saveSnapshot(opts.snapshot, strs)
		if err != nil {
			return err
		}

		env.logger.Info("snapshot saved", "path", opts.snapshot, "entries", n)
	}

	return nil
}

func listenAndServe(ctx context.Context, env *runtimeEnv, handler http.Handler) error {
	srv := &http.Server{
		Addr:         env.cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  env.cfg.Server.ReadTimeout,
		WriteTimeout: env.cfg.Server.WriteTimeout,
		IdleTimeout:  env.cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		env.logger.Info("paracord server starting", "addr", "http://"+srv.Addr)

		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), env.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		env.logger.Info("paracord server stopped")

		return nil
	})

	return g.Wait()
}

type server struct {
	strs      *paracord.Strings
	logger    *slog.Logger
	bodyLimit int64
}

func newServer(strs *paracord.Strings, logger *slog.Logger, cfg *config.Config) *server {
	limit, _ := cfg.Server.BodyLimit() // Validated on load.

	return &server{strs: strs, logger: logger, bodyLimit: limit}
}

// routes builds the API mux wrapped in tracing and RED metrics, and
// registers the interner gauges on the providers' meter.
func (s *server) routes(providers observability.Providers) (http.Handler, error) {
	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create server metrics: %w", err)
	}

	if _, err := observability.RegisterInternerMetrics(providers.Meter, internerLabel, s.strs); err != nil {
		return nil, fmt.Errorf("register interner metrics: %w", err)
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /intern", s.handleIntern)
	api.HandleFunc("GET /resolve", s.handleResolve)
	api.HandleFunc("GET /lookup", s.handleLookup)
	api.HandleFunc("GET /stats", s.handleStats)
	api.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	})

	root := http.NewServeMux()
	root.Handle("GET /metrics", providers.MetricsHandler)
	root.Handle("/", observability.HTTPMiddleware(providers.Tracer, red, api))

	return root, nil
}

func (s *server) writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(value); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

func (s *server) writeError(ctx context.Context, rw http.ResponseWriter, status int, msg string) {
	s.writeJSON(ctx, rw, status, ErrorResponse{Error: msg})
}

func (s *server) handleIntern(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	body := hr.Body
	if s.bodyLimit > 0 {
		body = http.MaxBytesReader(rw, hr.Body, s.bodyLimit)
	}

	var req InternRequest

	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(ctx, rw, http.StatusRequestEntityTooLarge, "request body too large")

			return
		}

		s.writeError(ctx, rw, http.StatusBadRequest, "invalid request body")

		return
	}

	resp := InternResponse{Keys: make([]uint32, len(req.Values))}
	for i, v := range req.Values {
		resp.Keys[i] = s.strs.GetOrIntern(v).Repr()
	}

	s.logger.DebugContext(ctx, "interned batch", "values", len(req.Values), "entries", s.strs.Len())
	s.writeJSON(ctx, rw, http.StatusOK, resp)
}

func (s *server) handleResolve(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	repr, err := strconv.ParseUint(hr.URL.Query().Get("key"), 10, 32)
	if err != nil {
		s.writeError(ctx, rw, http.StatusBadRequest, "key must be an unsigned 32-bit integer")

		return
	}

	k, ok := paracord.KeyFromRepr(uint32(repr))
	if !ok {
		s.writeError(ctx, rw, http.StatusNotFound, "key not found")

		return
	}

	v, ok := s.strs.TryResolve(k)
	if !ok {
		s.writeError(ctx, rw, http.StatusNotFound, "key not found")

		return
	}

	s.writeJSON(ctx, rw, http.StatusOK, EntryResponse{Key: k.Repr(), Value: v})
}

func (s *server) handleLookup(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	query := hr.URL.Query()
	if !query.Has("value") {
		s.writeError(ctx, rw, http.StatusBadRequest, "missing value parameter")

		return
	}

	value := query.Get("value")

	k, ok := s.strs.Get(value)
	if !ok {
		s.writeError(ctx, rw, http.StatusNotFound, "value not interned")

		return
	}

	s.writeJSON(ctx, rw, http.StatusOK, EntryResponse{Key: k.Repr(), Value: value})
}

func (s *server) handleStats(rw http.ResponseWriter, hr *http.Request) {
	stats := s.strs.Stats()

	s.writeJSON(hr.Context(), rw, http.StatusOK, StatsResponse{
		Entries:     stats.Entries,
		Shards:      stats.Shards,
		MemoryBytes: stats.MemoryBytes(),
		Hits:        stats.Hits,
		Misses:      stats.Misses,
		HitRate:     stats.HitRate(),
	})
}
