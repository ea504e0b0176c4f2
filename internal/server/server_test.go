package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/protocol"
	"github.com/vk/adagraph/internal/queue"
)

const waitFor = 2 * time.Second

// startServer runs a server on a random loopback port and stops it when the
// test ends.
func startServer(t *testing.T, cfg Config) (*Server, *queue.Queue) {
	t.Helper()

	cfg.Addr = "127.0.0.1:0"
	q := queue.New(queue.FIFO)
	srv := New(cfg, q)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Listen(ctx))

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Error("server did not stop")
		}
	})
	return srv, q
}

func dial(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func frame(t *testing.T, cmd protocol.Command) []byte {
	t.Helper()
	b, err := protocol.Encode(cmd)
	require.NoError(t, err)
	return b
}

func waitLen(t *testing.T, q *queue.Queue, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return q.Len() == n }, waitFor, 5*time.Millisecond)
}

// assertHeader checks that got is the header of want as it went over the
// wire.
func assertHeader(t *testing.T, want protocol.Command, got protocol.Header) {
	t.Helper()
	assert.Equal(t, want.Header.Type, got.Type)
	assert.Equal(t, want.Header.Network, got.Network)
	assert.Equal(t, want.Header.Node, got.Node)
	assert.Equal(t, want.FrameLength(), got.ContentLength)
}

func popAll(q *queue.Queue) []protocol.Command {
	var out []protocol.Command
	q.Drain(func(cmd protocol.Command) { out = append(out, cmd) })
	return out
}

// requireClosedByPeer asserts the server closed conn rather than the read
// timing out.
func requireClosedByPeer(t *testing.T, conn net.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, err := conn.Read(make([]byte, 1))
	require.Error(t, err)
	assert.False(t, os.IsTimeout(err), "expected the server to close the connection, got %v", err)
}

func TestServe_HeaderOnlyFrame(t *testing.T) {
	srv, q := startServer(t, Config{})
	conn := dial(t, srv)

	node := uuid.New()
	_, err := conn.Write(frame(t, protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, node, nil)))
	require.NoError(t, err)

	waitLen(t, q, 1)
	cmds := popAll(q)
	require.Len(t, cmds, 1)
	assert.Equal(t, protocol.ExecuteNode, cmds[0].Header.Type)
	assert.Equal(t, uint32(protocol.HeaderSize), cmds[0].Header.ContentLength)
	assert.Equal(t, node, cmds[0].Header.Node)
	assert.Nil(t, cmds[0].Data)
}

func TestServe_FrameWithData(t *testing.T) {
	srv, q := startServer(t, Config{})
	conn := dial(t, srv)

	data := container.New().
		Set("name", container.Text("test")).
		Set("count", container.Int(-7)).
		Set("ratio", container.Float(0.5)).
		Set("ok", container.Bool(true))
	cmd := protocol.NewCommand(protocol.PropagateNode, uuid.New(), uuid.New(), data)
	_, err := conn.Write(frame(t, cmd))
	require.NoError(t, err)

	waitLen(t, q, 1)
	got := popAll(q)[0]
	assertHeader(t, cmd, got.Header)
	assert.True(t, data.Equal(got.Data), "got %v", got.Data)
}

func TestServe_MalformedHeaderKeepsConnectionOpen(t *testing.T) {
	srv, q := startServer(t, Config{})
	conn := dial(t, srv)

	bad := frame(t, protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), nil))
	binary.BigEndian.PutUint32(bad[1:5], 10)
	_, err := conn.Write(bad)
	require.NoError(t, err)

	good := protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), nil)
	_, err = conn.Write(frame(t, good))
	require.NoError(t, err)

	waitLen(t, q, 1)
	assert.Equal(t, good.Header.Node, popAll(q)[0].Header.Node)
	assert.Equal(t, 1, srv.Connections())
}

func TestServe_UndecodableBodyQueuesHeader(t *testing.T) {
	srv, q := startServer(t, Config{})
	conn := dial(t, srv)

	// The data block claims 99 bytes but the frame only carries 4.
	cmd := protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), nil)
	b := frame(t, cmd)
	binary.BigEndian.PutUint32(b[1:5], protocol.HeaderSize+4)
	b = binary.BigEndian.AppendUint32(b, 99)
	_, err := conn.Write(b)
	require.NoError(t, err)

	// The stream stays aligned, so the next frame decodes normally.
	next := protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), container.New().Set("k", container.Int(1)))
	_, err = conn.Write(frame(t, next))
	require.NoError(t, err)

	waitLen(t, q, 2)
	cmds := popAll(q)
	assert.Equal(t, cmd.Header.Node, cmds[0].Header.Node)
	assert.Nil(t, cmds[0].Data)
	assert.True(t, next.Data.Equal(cmds[1].Data))
}

func TestServe_TruncatedBodyQueuesHeaderAndCloses(t *testing.T) {
	srv, q := startServer(t, Config{})
	conn := dial(t, srv)

	cmd := protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), container.New().Set("k", container.Text("value")))
	b := frame(t, cmd)
	_, err := conn.Write(b[:len(b)-3])
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	waitLen(t, q, 1)
	got := popAll(q)[0]
	assertHeader(t, cmd, got.Header)
	assert.Nil(t, got.Data)
}

func TestServe_CloseConnectionCommand(t *testing.T) {
	srv, q := startServer(t, Config{})
	conn := dial(t, srv)

	_, err := conn.Write(frame(t, protocol.NewCommand(protocol.CloseConnection, uuid.Nil, uuid.Nil, nil)))
	require.NoError(t, err)

	requireClosedByPeer(t, conn)
	waitLen(t, q, 1)
	assert.Equal(t, protocol.CloseConnection, popAll(q)[0].Header.Type)
}

func TestServe_OversizedFrameClosesConnection(t *testing.T) {
	srv, q := startServer(t, Config{MaxFrameSize: 64})
	conn := dial(t, srv)

	data := container.New().Set("payload", container.Text(strings.Repeat("x", 100)))
	_, err := conn.Write(frame(t, protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), data)))
	require.NoError(t, err)

	requireClosedByPeer(t, conn)
	assert.Equal(t, 0, q.Len())
}

func TestServe_ManyConnections(t *testing.T) {
	srv, q := startServer(t, Config{})

	const clients, perClient = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		conn := dial(t, srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perClient; j++ {
				data := container.New().Set("j", container.Int(int32(j)))
				b, err := protocol.Encode(protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), data))
				if !assert.NoError(t, err) {
					return
				}
				if _, err := conn.Write(b); !assert.NoError(t, err) {
					return
				}
			}
		}()
	}
	wg.Wait()

	waitLen(t, q, clients*perClient)
	for _, cmd := range popAll(q) {
		assert.NotNil(t, cmd.Data)
	}
}

func TestServe_ShutdownClosesConnections(t *testing.T) {
	q := queue.New(queue.LIFO)
	srv := New(Config{Addr: "127.0.0.1:0"}, q)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Listen(ctx))

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return srv.Connections() == 1 }, waitFor, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Serve did not return after cancel")
	}
	requireClosedByPeer(t, conn)
	assert.Equal(t, 0, srv.Connections())
}

func TestServe_RequiresListen(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, queue.New(queue.LIFO))
	assert.ErrorIs(t, srv.Serve(context.Background()), ErrNotListening)
	assert.Nil(t, srv.Addr())
}

func TestListen_BindFailure(t *testing.T) {
	srv, _ := startServer(t, Config{})

	other := New(Config{Addr: srv.Addr().String()}, queue.New(queue.LIFO))
	assert.Error(t, other.Listen(context.Background()))
}

// logBuffer collects log output written from connection goroutines.
type logBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *logBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *logBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestServe_TrailingBodyBytesAreReported(t *testing.T) {
	logs := &logBuffer{}
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(logs, nil))))
	defer cancel()

	q := queue.New(queue.FIFO)
	srv := New(Config{Addr: "127.0.0.1:0"}, q)
	require.NoError(t, srv.Listen(ctx))
	go func() { _ = srv.Serve(ctx) }()
	conn := dial(t, srv)

	// The frame announces three bytes more than the data block declares.
	data := container.New().Set("k", container.Int(1))
	cmd := protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), data)
	b := frame(t, cmd)
	binary.BigEndian.PutUint32(b[1:5], cmd.FrameLength()+3)
	b = append(b, 0xAA, 0xBB, 0xCC)
	_, err := conn.Write(b)
	require.NoError(t, err)

	next := protocol.NewCommand(protocol.ExecuteNode, uuid.Nil, uuid.New(), nil)
	_, err = conn.Write(frame(t, next))
	require.NoError(t, err)

	waitLen(t, q, 2)
	cmds := popAll(q)
	assert.True(t, data.Equal(cmds[0].Data))
	assert.Equal(t, next.Header.Node, cmds[1].Header.Node, "stream stays aligned after the trailing bytes")
	assert.Contains(t, logs.String(), "Command data is shorter than the frame body")
}

func TestServe_ListenerClosedClosesConnections(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, queue.New(queue.LIFO))
	ctx := context.Background()
	require.NoError(t, srv.Listen(ctx))

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return srv.Connections() == 1 }, waitFor, 5*time.Millisecond)

	srv.mu.Lock()
	require.NoError(t, srv.listener.Close())
	srv.mu.Unlock()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Serve did not return after the listener closed")
	}
	requireClosedByPeer(t, conn)
	assert.Equal(t, 0, srv.Connections())
}
