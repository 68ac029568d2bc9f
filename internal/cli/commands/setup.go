// Package commands implements the onehub subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/cli/output"
	"github.com/onehub-labs/onehub/internal/config"
	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/internal/store"
	"github.com/onehub-labs/onehub/pkg/core"
)

type ctxKey int

const (
	configKey ctxKey = iota
	loggerKey
	rendererKey
)

// WithConfig stores the loaded configuration in the command context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// ConfigFrom retrieves the configuration, falling back to defaults.
func ConfigFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// WithLogger stores the logger in the command context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFrom retrieves the logger, falling back to a discard logger.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// WithRenderer stores the renderer in the command context.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey, r)
}

// RendererFrom retrieves the renderer, falling back to stdout.
func RendererFrom(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Store    *store.Store
	Sessions *session.Manager
}

// NewCommandContext opens the metadata store and creates a session pool.
// The cleanup function must be called, typically via defer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutStore(cmd)

	st, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}

	mgr := session.NewManager(cmdCtx.Cfg.SessionOptions(), cmdCtx.Logger)

	cleanup := func() {
		mgr.Close()
		_ = st.Close()
	}

	cmdCtx.Store = st
	cmdCtx.Sessions = mgr
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore builds a CommandContext without touching
// the store. Useful for commands that only render or inspect config.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	return &CommandContext{
		Cfg:      ConfigFrom(ctx),
		Logger:   LoggerFrom(ctx),
		Renderer: RendererFrom(ctx),
	}
}

// openStore opens the metadata store, creating its directory first.
func openStore(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	if dir := filepath.Dir(cfg.StorePath); cfg.StorePath != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return store.Open(cfg.StorePath, logger)
}

// resolveConnection finds a stored connection by name, falling back to ID.
func resolveConnection(ctx context.Context, st *store.Store, ref string) (*store.Connection, error) {
	rec, err := st.GetConnectionByName(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		rec, err = st.GetConnection(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("connection %q: %w", ref, err)
	}
	return rec, nil
}

// databaseConfig decodes a stored connection into a backend config,
// rejecting non-database kinds with a usable message.
func databaseConfig(rec *store.Connection) (core.Config, error) {
	if rec.Type != store.ConnectionDatabase {
		return core.Config{}, fmt.Errorf("connection %q is a %s connection, not a database", rec.Name, rec.Type)
	}
	return rec.Config()
}
