package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/protocol"
)

// Dispatcher is the part of the execution graph the scheduler drives.
// *graph.Graph implements it.
type Dispatcher interface {
	Execute(ctx context.Context, id uuid.UUID, args *container.Container) error
	Propagate(ctx context.Context, id uuid.UUID, args *container.Container) error
}

// Source is the queue the scheduler consumes. *queue.Queue implements it.
type Source interface {
	Drain(fn func(protocol.Command)) int
	Len() int
}
