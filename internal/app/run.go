package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/adagraph/internal/ctxlog"
)

// Run binds the ingestion server and serves until ctx is cancelled. Only a
// bind failure is returned as an error; everything a client sends is handled
// and logged.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.server.Listen(ctx); err != nil {
		return fmt.Errorf("failed to start ingestion server: %w", err)
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.scheduler.Run(ctx)
	}()

	a.logger.Info("🚀 Accepting commands.", "nodes", a.graph.Len(), "queue_order", a.queue.Order())
	err := a.server.Serve(ctx)
	wg.Wait()

	if n := a.queue.Len(); n > 0 {
		a.logger.Warn("Commands left undispatched at shutdown.", "count", n)
	}
	if cerr := a.graph.Close(ctx); cerr != nil {
		a.logger.Warn("Failed to release node actions.", "error", cerr)
	}
	a.logger.Info("🏁 Server stopped.", "stats", a.scheduler.Stats())
	return err
}
