// Package status serves the console's local ops surface: health, live
// sync-state snapshots for the dashboard shell, and Prometheus metrics.
// It is read-only and never proxies the backend API.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/reachforge/reachforge-console/internal/events"
	"github.com/reachforge/reachforge-console/internal/models"
	"github.com/reachforge/reachforge-console/internal/notify"
	"github.com/reachforge/reachforge-console/internal/pkg/logger"
	"github.com/reachforge/reachforge-console/internal/pkg/redact"
	"github.com/reachforge/reachforge-console/internal/realtime"
)

// ConnectionSource exposes the socket state to the status surface.
type ConnectionSource interface {
	State() realtime.Connection
}

// TelemetrySource exposes the live snapshots held by the sync engine.
type TelemetrySource interface {
	Queues() []models.QueueSnapshot
	Pipeline() []events.PipelineStage
	Stats() (models.DashboardStats, bool)
}

// ToastSource exposes the active toast stack.
type ToastSource interface {
	Active() []notify.Toast
}

// Server is the local ops HTTP listener.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// Options wires the server to its sources.
type Options struct {
	Port           int
	AllowedOrigins []string
	Connection     ConnectionSource
	Telemetry      TelemetrySource
	Toasts         ToastSource
	Logger         *slog.Logger
}

// statusPayload is the /status response body.
type statusPayload struct {
	Connection struct {
		State            string `json:"state"`
		LastError        string `json:"last_error,omitempty"`
		ReconnectAttempt int    `json:"reconnect_attempt"`
	} `json:"connection"`
	Queues      []models.QueueSnapshot `json:"queues"`
	Pipeline    []events.PipelineStage `json:"pipeline"`
	Stats       *models.DashboardStats `json:"stats,omitempty"`
	ActiveToast int                    `json:"active_toasts"`
}

// NewServer builds the listener; Start runs it.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{log: opts.Logger}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/status", s.handleStatus(opts)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware(opts.Logger))

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start blocks serving until Shutdown or a listen failure.
func (s *Server) Start() error {
	err := s.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","service":"reachforge-console"}`))
}

func (s *Server) handleStatus(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload statusPayload
		if opts.Connection != nil {
			conn := opts.Connection.State()
			payload.Connection.State = string(conn.State)
			payload.Connection.LastError = redact.Message(conn.LastError)
			payload.Connection.ReconnectAttempt = conn.ReconnectAttempt
		}
		if opts.Telemetry != nil {
			payload.Queues = opts.Telemetry.Queues()
			payload.Pipeline = opts.Telemetry.Pipeline()
			if stats, ok := opts.Telemetry.Stats(); ok {
				payload.Stats = &stats
			}
		}
		if opts.Toasts != nil {
			payload.ActiveToast = len(opts.Toasts.Active())
		}
		if payload.Queues == nil {
			payload.Queues = []models.QueueSnapshot{}
		}
		if payload.Pipeline == nil {
			payload.Pipeline = []events.PipelineStage{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), logger.RequestIDKey, uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.RequestLog(os.Stderr, logger.FromContext(r.Context()), r.Method, r.URL.Path, rw.statusCode, time.Since(start), "")
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

func recoveryMiddleware(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered in status handler", "panic", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
