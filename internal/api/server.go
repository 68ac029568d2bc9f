// Package api serves the local JSON API the GUI shell talks to. Every
// response is JSON; failures use a uniform {error} envelope with the status
// code derived from the typed store, session and plugin errors.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/onehub-labs/onehub/internal/explorer"
	"github.com/onehub-labs/onehub/internal/llm"
	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/internal/store"
)

// Server is the local API server.
type Server struct {
	addr      string
	store     *store.Store
	sessions  *session.Manager
	providers *llm.Manager
	tree      *explorer.Builder
	logger    *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Addr      string
	Store     *store.Store
	Sessions  *session.Manager
	Providers *llm.Manager
	Logger    *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:      cfg.Addr,
		store:     cfg.Store,
		sessions:  cfg.Sessions,
		providers: cfg.Providers,
		tree:      explorer.NewBuilder(cfg.Sessions, cfg.Store, logger),
		logger:    logger,
	}
}

// Handler builds the routed handler. Exposed so tests and embedding shells
// can mount the API without binding a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(s.logger),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	workspaces := &workspaceHandlers{store: s.store}
	connections := &connectionHandlers{
		store:    s.store,
		sessions: s.sessions,
		tree:     s.tree,
		logger:   s.logger,
	}
	queries := &queryHandlers{store: s.store}
	providers := &providerHandlers{store: s.store, providers: s.providers}
	chat := &chatHandlers{store: s.store}
	pool := &sessionHandlers{sessions: s.sessions}

	r.Route("/api", func(r chi.Router) {
		r.Route("/workspaces", workspaces.register)
		r.Route("/connections", connections.register)
		r.Route("/queries", queries.register)
		r.Route("/providers", providers.register)
		r.Route("/chat/sessions", chat.register)
		r.Route("/sessions", pool.register)
	})

	return r
}

// Serve starts the API server and blocks until the context is cancelled.
// The session sweeper runs alongside the listener and the pool is closed
// once the server has drained.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", fmt.Sprintf("http://%s", s.addr))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Expire idle sessions while the server runs
	eg.Go(func() error {
		s.sessions.Run(egctx)
		return nil
	})

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		err := srv.Shutdown(shutdownCtx)
		s.sessions.Close()
		return err
	})

	return eg.Wait()
}
