// Package server provides the public entry point for initializing the Javari
// core server.
//
// This package exists in pkg/ (not internal/) so downstream deployments can
// compose the full server and wrap its handler with their own middleware:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/javariai/javari-core/internal/api"
	"github.com/javariai/javari-core/internal/config"
	"github.com/javariai/javari-core/internal/engine"
	"github.com/javariai/javari-core/internal/routing"
	"github.com/javariai/javari-core/internal/sanitize"
	"github.com/javariai/javari-core/internal/telemetry"
	"github.com/javariai/javari-core/internal/tools"
	"github.com/javariai/javari-core/internal/tools/github"
	"github.com/javariai/javari-core/internal/tools/supabase"
	"github.com/javariai/javari-core/internal/tools/vercel"
)

// Server holds the initialized Javari core.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Registry is the tool registry, exposed so deployments can register
	// additional tools before serving.
	Registry *tools.Registry

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all core components from environment configuration and
// returns a ready Server.
func New(ctx context.Context) (*Server, error) {
	cfg := config.Load()

	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	sanitizer := sanitize.New(sanitize.DefaultPatterns(), cfg.Production())

	registry := tools.NewRegistry()
	registry.Register(github.NewReadAdapter())
	registry.Register(github.NewWriteAdapter())
	registry.Register(supabase.NewReadAdapter())
	registry.Register(vercel.NewReadAdapter())

	core := engine.NewCore(routing.New(), registry, sanitizer, engine.NewHTTPCaller())

	log.Info().
		Str("environment", cfg.Environment).
		Int("tools", len(registry.Descriptors())).
		Msg("Javari core initialized")

	handlers := api.NewHandlers(core, sanitizer, cfg)

	return &Server{
		Handler:      api.NewRouter(cfg, handlers),
		Registry:     registry,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}
