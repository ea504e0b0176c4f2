package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/ctxlog"
)

// ErrNodeNotFound is returned when an ID does not resolve to a node.
var ErrNodeNotFound = errors.New("node not found")

// Graph owns every node, keyed by ID.
type Graph struct {
	nodes *xsync.MapOf[uuid.UUID, *Node]
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: xsync.NewMapOf[uuid.UUID, *Node]()}
}

// AddNode inserts n under its own ID, replacing any node with the same ID.
func (g *Graph) AddNode(n *Node) {
	g.nodes.Store(n.ID(), n)
}

// Node looks up a node by ID.
func (g *Graph) Node(id uuid.UUID) (*Node, bool) {
	return g.nodes.Load(id)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return g.nodes.Size()
}

// Nodes returns all node IDs in sorted order.
func (g *Graph) Nodes() []uuid.UUID {
	ids := make([]uuid.UUID, 0, g.nodes.Size())
	g.nodes.Range(func(id uuid.UUID, _ *Node) bool {
		ids = append(ids, id)
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// AddDependent registers dependent to be executed whenever parent
// propagates. Both nodes must already be in the graph. Adding the same
// dependent twice is a no-op.
func (g *Graph) AddDependent(parent, dependent uuid.UUID) error {
	p, ok := g.nodes.Load(parent)
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrNodeNotFound, parent)
	}
	if _, ok := g.nodes.Load(dependent); !ok {
		return fmt.Errorf("%w: dependent %s", ErrNodeNotFound, dependent)
	}
	p.addDependent(dependent)
	return nil
}

// Execute runs the node identified by id with args.
func (g *Graph) Execute(ctx context.Context, id uuid.UUID, args *container.Container) error {
	n, ok := g.nodes.Load(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n.Execute(ctx, args)
}

// Propagate executes every dependent of the node identified by id, each with
// its own clone of args. Dependents run synchronously in the calling
// goroutine. A failing dependent does not stop the others; all failures are
// joined into the returned error.
func (g *Graph) Propagate(ctx context.Context, id uuid.UUID, args *container.Container) error {
	n, ok := g.nodes.Load(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for _, depID := range n.Dependents() {
		dep, ok := g.nodes.Load(depID)
		if !ok {
			logger.Warn("Dependent is no longer in the graph, skipping.", "node", id, "dependent", depID)
			continue
		}
		logger.Debug("Propagating to dependent.", "node", id, "dependent", depID)
		if err := dep.Execute(ctx, args.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every node action that implements io.Closer. All nodes are
// visited; failures are joined into the returned error.
func (g *Graph) Close(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for _, id := range g.Nodes() {
		n, ok := g.nodes.Load(id)
		if !ok {
			continue
		}
		closer, ok := n.action.(io.Closer)
		if !ok {
			continue
		}
		logger.Debug("Closing node action.", "node", id)
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
