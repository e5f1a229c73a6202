// Package server exposes the resolution engine over HTTP: a JSON API for
// upstream generation services that want resolved scenes without shelling
// out to the CLI.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stagehand-dev/stagehand/pkg/buildinfo"
	"github.com/stagehand-dev/stagehand/pkg/errors"
	"github.com/stagehand-dev/stagehand/pkg/resolve"
	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// maxBodySize bounds request bodies. Generated layouts are small; anything
// near this limit is malformed or hostile.
const maxBodySize = 8 << 20

// Server wires the resolution runner into an HTTP router.
type Server struct {
	runner *resolve.Runner
	opts   resolve.Options
	logger *log.Logger
	router chi.Router
}

// New creates a server around the given runner. The options act as
// server-side defaults; requests may override the serializable fields.
func New(runner *resolve.Runner, opts resolve.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		opts:   opts,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// resolveRequest is the POST /v1/resolve body.
type resolveRequest struct {
	Layout  *scene.Layout   `json:"layout"`
	Options resolve.Options `json:"options"`
}

// resolveResponse is the success payload.
type resolveResponse struct {
	Scene *scene.Resolved   `json:"scene"`
	Stats resolve.Stats     `json:"stats"`
	Cache resolve.CacheInfo `json:"cache"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}
	if req.Layout == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidLayout, "request has no layout"))
		return
	}

	opts := s.opts
	if req.Options.GridStep != 0 {
		opts.GridStep = req.Options.GridStep
	}
	if req.Options.OverlapPasses != 0 {
		opts.OverlapPasses = req.Options.OverlapPasses
	}
	if req.Options.DefaultFootprint.Valid() {
		opts.DefaultFootprint = req.Options.DefaultFootprint
	}
	if req.Options.SkipFloorFallback {
		opts.SkipFloorFallback = true
	}

	result, err := s.runner.Execute(r.Context(), req.Layout, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, resolveResponse{
		Scene: result.Scene,
		Stats: result.Stats,
		Cache: result.Cache,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// errorResponse is the failure payload for all endpoints.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err)
	}
	s.writeJSON(w, status, errorResponse{
		Error: errorBody{
			Code:    string(code),
			Message: errors.UserMessage(err),
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// statusFor maps structured error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidRoom,
		errors.ErrCodeInvalidLayout,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound,
		errors.ErrCodeModelNotFound,
		errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
