package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/graph"
	"github.com/vk/adagraph/internal/protocol"
)

// DefaultInterval is the pause between two polls of an empty queue.
const DefaultInterval = 100 * time.Millisecond

// Options configures a Scheduler.
type Options struct {
	// Interval is the sleep between drains. Zero means DefaultInterval.
	Interval time.Duration
}

// Stats is a snapshot of the scheduler's counters.
type Stats struct {
	Dispatched uint64 `json:"dispatched"`
	Missed     uint64 `json:"missed"`
	Failed     uint64 `json:"failed"`
	Ignored    uint64 `json:"ignored"`
}

// Scheduler is the single consumer of the command queue.
type Scheduler struct {
	source     Source
	dispatcher Dispatcher
	interval   time.Duration

	dispatched atomic.Uint64
	missed     atomic.Uint64
	failed     atomic.Uint64
	ignored    atomic.Uint64
}

// New creates a scheduler that drains source into dispatcher.
func New(source Source, dispatcher Dispatcher, opts Options) *Scheduler {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		source:     source,
		dispatcher: dispatcher,
		interval:   interval,
	}
}

// Run polls the queue until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Scheduler started.", "interval", s.interval)
	defer logger.Debug("Scheduler stopped.")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.Poll(ctx)
		timer.Reset(s.interval)
	}
}

// Poll drains the queue once, dispatching every command, and returns how
// many commands it handled.
func (s *Scheduler) Poll(ctx context.Context) int {
	return s.source.Drain(func(cmd protocol.Command) {
		s.Dispatch(ctx, cmd)
	})
}

// Dispatch applies a single command to the graph.
func (s *Scheduler) Dispatch(ctx context.Context, cmd protocol.Command) {
	logger := ctxlog.FromContext(ctx).With("command", cmd.Header)

	var err error
	switch cmd.Header.Type {
	case protocol.ExecuteNode:
		err = s.dispatcher.Execute(ctx, cmd.Header.Node, argsOf(cmd))
	case protocol.PropagateNode:
		// The node gets its own copy so dependents see the command's data
		// even if the action modifies its argument.
		args := argsOf(cmd)
		err = s.dispatcher.Execute(ctx, cmd.Header.Node, args.Clone())
		if err == nil {
			err = s.dispatcher.Propagate(ctx, cmd.Header.Node, args)
		}
	case protocol.CloseConnection:
		logger.Debug("Close command needs no graph action.")
		s.ignored.Add(1)
		return
	default:
		logger.Warn("Discarding command of unknown type.")
		s.ignored.Add(1)
		return
	}

	switch {
	case err == nil:
		logger.Debug("Command dispatched.")
		s.dispatched.Add(1)
	case errors.Is(err, graph.ErrNodeNotFound):
		logger.Warn("Command names a node that is not in the graph, dropping.", "node", cmd.Header.Node)
		s.missed.Add(1)
	default:
		logger.Error("Command dispatch failed.", "error", err)
		s.failed.Add(1)
	}
}

// Stats returns the current counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Dispatched: s.dispatched.Load(),
		Missed:     s.missed.Load(),
		Failed:     s.failed.Load(),
		Ignored:    s.ignored.Load(),
	}
}

// argsOf returns the command's container, or an empty one when absent. The
// scheduler owns the command, so the container is handed over as-is.
func argsOf(cmd protocol.Command) *container.Container {
	if cmd.Data == nil {
		return container.New()
	}
	return cmd.Data
}
