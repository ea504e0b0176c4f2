// Package graph holds the execution graph: a table of nodes keyed by ID, each
// with an action to run and a set of dependents to notify.
//
// # Ownership
//
// The Graph is the only owner of nodes. Nodes live in an arena keyed by
// uuid.UUID and dependents are recorded by ID, not by pointer:
//
//	┌──────────── Graph ─────────────┐
//	│  id → *Node                    │
//	│   ├─ a ─ dependents {b, c}     │
//	│   ├─ b ─ dependents {c}        │
//	│   └─ c ─ dependents {}         │
//	└────────────────────────────────┘
//
// Propagation resolves each dependent ID through the arena at call time. A
// node removed or never added is skipped with a warning. Because no node
// points at another, cycles cannot keep memory alive; they are still the
// caller's responsibility to avoid.
//
// # Execution
//
// Execute runs a node's Action synchronously in the caller's goroutine.
// Calls on the same node are serialized by a per-node lock; calls on
// different nodes run in parallel. An action that re-enters its own node from
// the goroutine already running it gets ErrReentrant rather than a deadlock.
//
// Propagate clones the argument container once per dependent and executes
// each dependent directly, one level deep, without going back through the
// command queue.
//
// # Thread-Safety
//
// The node table is a concurrent map and each node guards its dependent set,
// so AddNode and AddDependent are safe while commands are being dispatched.
package graph
