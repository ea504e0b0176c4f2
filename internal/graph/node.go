package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/petermattis/goid"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/ctxlog"
)

var (
	// ErrReentrant is returned when a node is executed again from inside its
	// own running action.
	ErrReentrant = errors.New("node is already executing on this goroutine")
	// ErrActionPanicked is returned when a node's action panics.
	ErrActionPanicked = errors.New("node action panicked")
)

// Node is a single vertex of the execution graph.
type Node struct {
	id     uuid.UUID
	action Action

	// mu serializes Execute; owner is the goroutine holding it, 0 when idle.
	mu    sync.Mutex
	owner atomic.Int64

	depMu      sync.RWMutex
	dependents map[uuid.UUID]struct{}
}

// NewNode creates a node that runs action when executed.
func NewNode(id uuid.UUID, action Action) *Node {
	return &Node{
		id:         id,
		action:     action,
		dependents: make(map[uuid.UUID]struct{}),
	}
}

// ID returns the node's identifier.
func (n *Node) ID() uuid.UUID {
	return n.id
}

// Dependents returns the IDs of the node's dependents in sorted order.
func (n *Node) Dependents() []uuid.UUID {
	n.depMu.RLock()
	ids := make([]uuid.UUID, 0, len(n.dependents))
	for id := range n.dependents {
		ids = append(ids, id)
	}
	n.depMu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (n *Node) addDependent(id uuid.UUID) {
	n.depMu.Lock()
	n.dependents[id] = struct{}{}
	n.depMu.Unlock()
}

// Execute runs the node's action with args, or with an empty container when
// args is nil. A panic inside the action is recovered and reported as
// ErrActionPanicked.
func (n *Node) Execute(ctx context.Context, args *container.Container) (err error) {
	gid := goid.Get()
	if n.owner.Load() == gid {
		return fmt.Errorf("%w: %s", ErrReentrant, n.id)
	}

	n.mu.Lock()
	n.owner.Store(gid)
	defer func() {
		n.owner.Store(0)
		n.mu.Unlock()
	}()

	if args == nil {
		args = container.New()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: node %s: %v", ErrActionPanicked, n.id, r)
		}
	}()

	ctxlog.FromContext(ctx).Debug("Executing node.", "node", n.id, "arguments", args)
	n.action.Invoke(ctx, args)
	return nil
}
