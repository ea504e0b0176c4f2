// Package scheduler drains the shared command queue and dispatches each
// command against the execution graph.
//
// # How It Works
//
// A single Scheduler runs in its own goroutine and repeats a fixed cycle:
//  1. Lock the queue and pop commands until it is empty (newest first by
//     default; see queue.Order)
//  2. Dispatch every popped command
//  3. Sleep for the poll interval, or return when the context is cancelled
//
// Dispatch resolves the command's node ID through the Dispatcher:
//   - ExecuteNode: run the node with the command's container (empty if absent)
//   - PropagateNode: run the node, then run each of its dependents
//   - CloseConnection: nothing; the server already handled it on the wire
//   - Unknown: logged and discarded
//
// A command naming a node that is not in the graph is logged and dropped.
// No dispatch outcome stops the scheduler.
package scheduler
