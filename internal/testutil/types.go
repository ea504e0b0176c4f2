// Package testutil holds helpers shared by the system tests: a recording
// action module and a way to lay out topology files on disk.
package testutil

import (
	"time"

	"github.com/vk/adagraph/internal/container"
)

// ExecutionRecord holds the start and end times for a single invocation.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Invocation is one call of a recorded action.
type Invocation struct {
	Label string
	Data  *container.Container
	ExecutionRecord
}
