// Package queue provides the command queue shared by every connection
// goroutine (producers) and the scheduler (the single consumer).
package queue

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vk/adagraph/internal/protocol"
)

// Order selects which end of the queue the consumer takes from.
type Order int

const (
	// LIFO hands out the most recently pushed command first. Older commands
	// can starve under continuous load.
	LIFO Order = iota
	// FIFO hands out commands in arrival order.
	FIFO
)

// ParseOrder parses "lifo" or "fifo" (case-insensitive).
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "lifo":
		return LIFO, nil
	case "fifo":
		return FIFO, nil
	default:
		return LIFO, fmt.Errorf("invalid queue order %q: must be 'lifo' or 'fifo'", s)
	}
}

func (o Order) String() string {
	if o == FIFO {
		return "fifo"
	}
	return "lifo"
}

// Queue is a mutex-guarded sequence of commands.
type Queue struct {
	mu    sync.Mutex
	order Order
	items []protocol.Command
}

// New creates an empty queue that pops in the given order.
func New(order Order) *Queue {
	return &Queue{order: order}
}

// Order returns the pop order of the queue.
func (q *Queue) Order() Order {
	return q.order
}

// Push appends cmd.
func (q *Queue) Push(cmd protocol.Command) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.mu.Unlock()
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pop removes and returns the next command according to the queue order.
func (q *Queue) Pop() (protocol.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Drain pops commands and passes them to fn until the queue is empty,
// holding the lock for the whole drain. Producers block until it returns, so
// fn must stay light. It returns the number of commands drained.
func (q *Queue) Drain(fn func(protocol.Command)) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for {
		cmd, ok := q.popLocked()
		if !ok {
			return n
		}
		fn(cmd)
		n++
	}
}

func (q *Queue) popLocked() (protocol.Command, bool) {
	if len(q.items) == 0 {
		return protocol.Command{}, false
	}

	var cmd protocol.Command
	if q.order == FIFO {
		cmd = q.items[0]
		q.items[0] = protocol.Command{}
		q.items = q.items[1:]
	} else {
		last := len(q.items) - 1
		cmd = q.items[last]
		q.items[last] = protocol.Command{}
		q.items = q.items[:last]
	}
	if len(q.items) == 0 {
		q.items = nil
	}
	return cmd, true
}
