// Package server exposes the tagger over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/bstardust/htgen/internal/config"
	"github.com/bstardust/htgen/internal/logger"
	"github.com/bstardust/htgen/internal/tagger"
)

// Tagger generates hashtags for one uploaded image
type Tagger interface {
	Tag(ctx context.Context, req tagger.Request) (tagger.Result, error)
}

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
}

// New builds the router and the underlying http.Server
func New(cfg *config.Config, t Tagger) *Server {
	s := &Server{cfg: cfg}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, t),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// NewRouter wires the routes and middleware
func NewRouter(cfg *config.Config, t Tagger) http.Handler {
	h := NewHandler(t, cfg.Upload.MaxSize, cfg.Upload.AllowedExtensions)

	var hashtags http.Handler = http.HandlerFunc(h.Hashtags)
	if cfg.Limit.RPS > 0 {
		hashtags = NewLimiter(cfg.Limit.RPS, cfg.Limit.Burst).Middleware(hashtags)
	}

	r := mux.NewRouter()
	r.Handle("/hashtags", hashtags).Methods(http.MethodPost)
	r.HandleFunc("/health", healthHandler(cfg.Version)).Methods(http.MethodGet)
	r.Use(requestID, accessLog)

	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", requestIDHeader}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedOrigins([]string{"*"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger.WithFields(logrus.Fields{"component": "recovery"})),
		handlers.PrintRecoveryStack(true),
	)

	return recovery(cors(r))
}

// Run blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Run() error {
	logger.WithFields(logrus.Fields{
		"address": s.httpServer.Addr,
		"env":     s.cfg.Env,
	}).Info("Server is running")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
