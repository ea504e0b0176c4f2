// Package app wires the server together. It owns the logger, the action
// registry, the execution graph, the command queue, the scheduler and the
// ingestion server, and runs them until the context is cancelled. It is
// decoupled from any specific entrypoint like a CLI.
package app
