// Package server exposes valuation reports over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"nitroScope/internal/model"
	"nitroScope/internal/report"
	"nitroScope/internal/storage"
)

// Builder produces valuation reports.
type Builder interface {
	Build(ctx context.Context, req report.Request) (model.ValuationReport, error)
}

// Config holds HTTP server settings. DefaultPool and DefaultNitro are used
// when a request omits the pool or nitro query parameter.
type Config struct {
	Listen          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	DefaultPool     common.Address
	DefaultNitro    common.Address
}

// Server serves /health and /v1/reports/{user}.
type Server struct {
	cfg        Config
	router     *mux.Router
	httpServer *http.Server
	builder    Builder
	sink       storage.ReportSink
	logger     *zap.Logger
}

// NewServer wires the routes. sink may be nil.
func NewServer(cfg Config, builder Builder, sink storage.ReportSink, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		router:  mux.NewRouter(),
		builder: builder,
		sink:    sink,
		logger:  logger,
	}
	s.router.Use(s.loggingMiddleware)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/reports/{user}", s.handleReport).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Listen))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	user, err := parseAddress(mux.Vars(r)["user"], common.Address{})
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_user", err.Error())
		return
	}
	pool, err := parseAddress(query.Get("pool"), s.cfg.DefaultPool)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_pool", err.Error())
		return
	}
	nitro, err := parseAddress(query.Get("nitro"), s.cfg.DefaultNitro)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_nitro", err.Error())
		return
	}
	var block uint64
	if raw := query.Get("block"); raw != "" {
		block, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_block", "block must be an unsigned integer")
			return
		}
	}

	rep, err := s.builder.Build(r.Context(), report.Request{Pool: pool, NitroPool: nitro, User: user, Block: block})
	if err != nil {
		status, code := classify(err)
		s.logger.Warn("report build failed", zap.String("user", user.Hex()), zap.Int("status", status), zap.Error(err))
		respondError(w, status, code, err.Error())
		return
	}

	if s.sink != nil {
		if err := s.sink.PutReport(r.Context(), rep); err != nil {
			s.logger.Error("persist report failed", zap.String("id", rep.ID), zap.Error(err))
		}
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func parseAddress(raw string, fallback common.Address) (common.Address, error) {
	if raw == "" {
		if fallback == (common.Address{}) {
			return common.Address{}, errMissingAddress
		}
		return fallback, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, errInvalidAddress
	}
	return common.HexToAddress(raw), nil
}
