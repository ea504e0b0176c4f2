package hcl

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/fsutil"
	"github.com/vk/adagraph/internal/topology"
)

// Loader is the HCL implementation of topology.Loader.
type Loader struct{}

// NewLoader creates a new HCL topology loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top level of a file. Unknown blocks are ignored.
type fileRoot struct {
	Nodes  []*nodeBlock `hcl:"node,block"`
	Remain hcl.Body     `hcl:",remain"`
}

type nodeBlock struct {
	Name       string         `hcl:"name,label"`
	ID         string         `hcl:"id"`
	Action     string         `hcl:"action"`
	Dependents []string       `hcl:"dependents,optional"`
	Settings   *settingsBlock `hcl:"settings,block"`
}

type settingsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Load parses every .hcl file under paths and merges their nodes into one
// model. Paths may be files or directories; missing paths are skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) (*topology.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &topology.Model{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, block := range root.Nodes {
			spec, err := l.translateNode(ctx, file, block)
			if err != nil {
				return nil, err
			}
			model.Nodes = append(model.Nodes, spec)
		}
	}

	logger.Debug("HCL loading complete.", "nodes", len(model.Nodes))
	return model, nil
}

func (l *Loader) translateNode(ctx context.Context, file string, b *nodeBlock) (*topology.NodeSpec, error) {
	id, err := uuid.Parse(b.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: node '%s': invalid id %q: %w", file, b.Name, b.ID, err)
	}

	var body hcl.Body
	if b.Settings != nil {
		body = b.Settings.Body
	}
	settings, err := decodeSettings(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%s: node '%s': %w", file, b.Name, err)
	}

	return &topology.NodeSpec{
		Name:       b.Name,
		ID:         id,
		Action:     b.Action,
		Dependents: b.Dependents,
		Settings:   settings,
		Source:     file,
	}, nil
}
