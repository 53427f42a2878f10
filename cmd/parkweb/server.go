package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mklimuk/parkbay/parking"
)

//go:embed static/*
var staticFiles embed.FS

const (
	headerRequestID = "X-Request-ID"
	headerMock      = "X-Parkbay-Mock"
)

// Controller is what the HTTP layer needs from the slave. *parking.Device and
// *parking.MockDevice implement it.
type Controller interface {
	GetAllStatus(ctx context.Context, force bool) (parking.Snapshot, error)
	SetServoAngle(ctx context.Context, value int) error
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Listen  string
	Version string
}

// Server exposes the bay status and the servo command over HTTP. A nil
// controller means no hardware: status is served from a fixed development
// snapshot and commands are refused.
type Server struct {
	config ServerConfig
	mux    *http.ServeMux
	server *http.Server
	dev    Controller
}

// NewServer creates a new server with the given configuration.
func NewServer(cfg ServerConfig, dev Controller) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		dev:    dev,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/servo", s.handleServo)
	s.mux.HandleFunc("/", s.handleStatic)
}

// Handler returns the routes wrapped with request tagging.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

func (s *Server) Start() error {
	slog.Info("http server listening", "addr", s.config.Listen)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type requestIDKey struct{}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(r *http.Request) *slog.Logger {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return slog.With("request_id", id, "method", r.Method, "path", r.URL.Path)
}

// handleStatic serves the dashboard page and its assets. Unknown paths get the
// page itself.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	filePath := strings.TrimPrefix(r.URL.Path, "/")
	if filePath == "" {
		filePath = "index.html"
	}
	if f, err := staticFS.Open(filePath); err != nil {
		filePath = "index.html"
	} else {
		_ = f.Close()
	}
	switch {
	case strings.HasSuffix(filePath, ".html"):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case strings.HasSuffix(filePath, ".css"):
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	case strings.HasSuffix(filePath, ".js"):
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	}
	http.ServeFileFS(w, r, staticFS, filePath)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type ServoRequest struct {
	Angle *int `json:"angle"`
}

type ServoResponse struct {
	Success bool `json:"success"`
	Angle   int  `json:"angle"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	version := s.config.Version
	if version == "" {
		version = "dev"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  version,
		"hardware": s.dev != nil,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.dev == nil {
		w.Header().Set(headerMock, "true")
		writeJSON(w, http.StatusOK, parking.DevelopmentSnapshot())
		return
	}
	// the dashboard renders every field, so read everything unless told otherwise
	force := true
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid force parameter", err.Error())
			return
		}
		force = b
	}
	snap, err := s.dev.GetAllStatus(r.Context(), force)
	if err != nil {
		requestLogger(r).Error("status read failed", "error", err)
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleServo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.dev == nil {
		writeError(w, http.StatusServiceUnavailable, "hardware not connected", "")
		return
	}
	var req ServoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Angle == nil {
		writeError(w, http.StatusBadRequest, "angle required", "")
		return
	}
	if err := s.dev.SetServoAngle(r.Context(), *req.Angle); err != nil {
		requestLogger(r).Error("servo command failed", "angle", *req.Angle, "error", err)
		writeFault(w, err)
		return
	}
	requestLogger(r).Info("servo command sent", "angle", *req.Angle)
	writeJSON(w, http.StatusOK, ServoResponse{Success: true, Angle: *req.Angle})
}

func writeFault(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, parking.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid command", err.Error())
	case parking.IsHardwareFault(err):
		writeError(w, http.StatusServiceUnavailable, "hardware unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, ErrorResponse{Error: message, Detail: detail})
}
