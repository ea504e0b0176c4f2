// Package client is a minimal sender for the command protocol, used by the
// adaclient tool and by end-to-end tests.
package client

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/protocol"
)

// Client writes encoded commands to a single TCP connection. It is safe for
// concurrent use; frames are never interleaved.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial connects to the ingestion server at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Send encodes cmd and writes the whole frame.
func (c *Client) Send(cmd protocol.Command) error {
	b, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.conn.Write(b); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd.Header.Type, err)
	}
	return nil
}

// Hangup asks the server to close the connection, then closes it locally.
func (c *Client) Hangup() error {
	err := c.Send(protocol.NewCommand(protocol.CloseConnection, uuid.Nil, uuid.Nil, nil))
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close closes the connection without notifying the server.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SampleData returns a container holding one value of every kind.
func SampleData() *container.Container {
	return container.New().
		Set("int", container.Int(1)).
		Set("float", container.Float(2.1)).
		Set("text", container.Text(strings.Repeat("string", 22))).
		Set("boolean", container.Bool(true))
}

// SampleCommand returns an ExecuteNode command for node carrying SampleData.
func SampleCommand(network, node uuid.UUID) protocol.Command {
	return protocol.NewCommand(protocol.ExecuteNode, network, node, SampleData())
}
