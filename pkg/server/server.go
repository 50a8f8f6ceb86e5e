package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexusdag/nexus/pkg/checkpoint"
	"github.com/nexusdag/nexus/pkg/config"
	"github.com/nexusdag/nexus/pkg/engine"
	"github.com/nexusdag/nexus/pkg/health"
	"github.com/nexusdag/nexus/pkg/history"
	"github.com/nexusdag/nexus/pkg/logging"
	"github.com/nexusdag/nexus/pkg/process"
	"github.com/nexusdag/nexus/pkg/storage"
)

// portScanRange is how many ports past cfg.HTTPBasePort Listen tries
// before giving up, matching the "9999..9999+9" fallback.
const portScanRange = 10

// Response is the envelope every API endpoint responds with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server is the HTTP surface over an Engine, its Supervisor, and the
// workflow/checkpoint/history stores around it.
type Server struct {
	cfg *config.Config

	engine      *engine.Engine
	supervisor  *process.Supervisor
	checkpoints *checkpoint.Manager
	history     *history.Manager
	store       storage.Store

	healthChecker *health.Checker
	logger        *logging.Logger

	httpServer *http.Server
	listener   net.Listener

	restarts *restartTracker
}

// New wires a Server around already-constructed dependencies. cfg, eng,
// supervisor and store must not be nil. A nil history or checkpoints
// manager disables the matching endpoints, which then answer 503, and a
// nil logger is replaced by one built from logging.DefaultConfig.
func New(cfg *config.Config, eng *engine.Engine, supervisor *process.Supervisor, checkpoints *checkpoint.Manager, historyMgr *history.Manager, store storage.Store, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}

	healthChecker := health.NewChecker("nexus", "0.1.0")
	healthChecker.RegisterCheck("engine", func(ctx context.Context) error {
		if eng == nil {
			return fmt.Errorf("engine not initialized")
		}
		return nil
	}, 5*time.Second, true)

	s := &Server{
		cfg:           cfg,
		engine:        eng,
		supervisor:    supervisor,
		checkpoints:   checkpoints,
		history:       historyMgr,
		store:         store,
		healthChecker: healthChecker,
		logger:        logger,
		restarts:      newRestartTracker(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Handler:      s.middlewareChain(mux),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("/health/live", s.healthChecker.LivenessHandler())
	mux.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler())
	mux.Handle("/metrics", promhttp.Handler())

	s.registerWorkflowRoutes(mux)
	s.registerExecutionRoutes(mux)
	s.registerAgentRoutes(mux)
	s.registerCheckpointRoutes(mux)
	s.registerHistoryRoutes(mux)
	s.registerProjectRoutes(mux)
}

func (s *Server) middlewareChain(handler http.Handler) http.Handler {
	if s.cfg.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}

// Start binds a listener, scanning cfg.HTTPBasePort through
// cfg.HTTPBasePort+9 for the first free port, then serves on it until
// the server is shut down. Start blocks while serving; Addr reports the
// bound address from the moment the listener is acquired.
func (s *Server) Start() error {
	listener, port, err := s.listen()
	if err != nil {
		return err
	}
	s.listener = listener

	s.logger.WithField("address", listener.Addr().String()).WithField("port", port).Info("starting server")

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

func (s *Server) listen() (net.Listener, int, error) {
	for offset := 0; offset < portScanRange; offset++ {
		port := s.cfg.HTTPBasePort + offset
		addr := fmt.Sprintf("%s:%d", s.cfg.HTTPAddress, port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			return listener, port, nil
		}
	}
	return nil, 0, fmt.Errorf("server: no free port in range %d-%d", s.cfg.HTTPBasePort, s.cfg.HTTPBasePort+portScanRange-1)
}

// Addr returns the bound address, empty until Start has acquired a
// listener.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops accepting connections and waits for
// in-flight requests to finish, bounded by ctx (nexusd passes a context
// that expires after cfg.HTTPShutdownWindow).
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeOK(w http.ResponseWriter, data interface{}) {
	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string, err error) {
	full := message
	if err != nil {
		full = fmt.Sprintf("%s: %v", message, err)
		s.logger.WithError(err).WithField("status_code", statusCode).Error(message)
	} else {
		s.logger.WithField("status_code", statusCode).Error(message)
	}
	s.writeJSON(w, statusCode, Response{Success: false, Error: full})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rw.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("http request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithField("error", fmt.Sprintf("%v", rec)).
					WithField("path", r.URL.Path).
					Error("panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
