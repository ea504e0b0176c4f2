// Package topology describes a graph in a format-agnostic way and builds the
// execution graph from that description.
//
// A Loader turns a configuration source (HCL files, see internal/hcl) into a
// Model. Build validates the model as a whole and then populates a
// graph.Graph, so the graph is either built completely or not at all.
package topology

import (
	"context"

	"github.com/google/uuid"

	"github.com/vk/adagraph/internal/container"
)

// Loader reads a topology from one or more paths.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model is the set of nodes declared by the configuration.
type Model struct {
	Nodes []*NodeSpec
}

// NodeSpec is the declaration of one node.
type NodeSpec struct {
	// Name identifies the node within the configuration and is how
	// dependents refer to it.
	Name string
	// ID is the identifier clients address on the wire.
	ID     uuid.UUID
	Action string
	// Dependents are node names that receive propagated data from this node.
	Dependents []string
	Settings   *container.Container
	// Source is a human-readable location, e.g. "graph.hcl:3,1-15".
	Source string
}

// ActionNames returns the action of every node, in declaration order.
func (m *Model) ActionNames() []string {
	names := make([]string, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		names = append(names, n.Action)
	}
	return names
}
