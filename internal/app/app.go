package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/graph"
	"github.com/vk/adagraph/internal/queue"
	"github.com/vk/adagraph/internal/registry"
	"github.com/vk/adagraph/internal/scheduler"
	"github.com/vk/adagraph/internal/server"
	"github.com/vk/adagraph/internal/topology"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry

	graph     *graph.Graph
	queue     *queue.Queue
	scheduler *scheduler.Scheduler
	server    *server.Server

	httpMu     sync.Mutex
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the topology,
// builds the graph and prepares the queue, scheduler and server. Nothing
// listens until Run is called.
func NewApp(outW io.Writer, cfg *Config, loader topology.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load topology: %w", err)
	}
	logger.Debug("Topology loaded.", "nodes", len(model.Nodes))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "actions", reg.Names())

	g := graph.New()
	if err := topology.Build(ctx, model, reg, g); err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	if g.Len() == 0 {
		logger.Warn("Topology declares no nodes, every command will be dropped.", "path", cfg.GraphPath)
	}

	q := queue.New(cfg.QueueOrder)
	return &App{
		logger:    logger,
		config:    cfg,
		registry:  reg,
		graph:     g,
		queue:     q,
		scheduler: scheduler.New(q, g, scheduler.Options{Interval: cfg.PollInterval}),
		server:    server.New(server.Config{Addr: cfg.ListenAddr, MaxFrameSize: cfg.MaxFrameSize}, q),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the execution graph.
func (a *App) Graph() *graph.Graph {
	return a.graph
}

// Addr returns the address the ingestion server is bound to, or nil before
// Run has bound it.
func (a *App) Addr() net.Addr {
	return a.server.Addr()
}
