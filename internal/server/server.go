package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/protocol"
)

// DefaultMaxFrameSize bounds the body a single frame may announce.
const DefaultMaxFrameSize = 16 << 20

// ErrNotListening is returned by Serve when Listen has not been called.
var ErrNotListening = errors.New("server is not listening")

// Pusher receives decoded commands. *queue.Queue implements it.
type Pusher interface {
	Push(cmd protocol.Command)
}

// Config holds the listener settings.
type Config struct {
	// Addr is the TCP address to bind, e.g. "127.0.0.1:7878".
	Addr string
	// MaxFrameSize is the largest ContentLength accepted. Zero means
	// DefaultMaxFrameSize.
	MaxFrameSize uint32
}

// Server is the ingestion server.
type Server struct {
	cfg   Config
	queue Pusher

	mu       sync.Mutex
	listener net.Listener

	conns  *xsync.MapOf[uint64, net.Conn]
	nextID atomic.Uint64
	wg     sync.WaitGroup
}

// New creates a server that pushes every decoded command to q.
func New(cfg Config, q Pusher) *Server {
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}
	return &Server{
		cfg:   cfg,
		queue: q,
		conns: xsync.NewMapOf[uint64, net.Conn](),
	}
}

// Listen binds the configured address. It is the only fatal error of the
// server's lifetime.
func (s *Server) Listen(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %q: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Info("📡 Ingestion server listening.", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Connections returns the number of live client connections.
func (s *Server) Connections() int {
	return s.conns.Size()
}

// Serve accepts connections until ctx is cancelled. On return the listener
// and every live connection are closed and their goroutines have exited.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}

	logger := ctxlog.FromContext(ctx)

	// Registered first so it runs after stop is closed, whichever way the
	// accept loop ends.
	defer s.wg.Wait()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		ln.Close()
		s.conns.Range(func(_ uint64, c net.Conn) bool {
			c.Close()
			return true
		})
	}()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Debug("Ingestion server stopped accepting.")
				return nil
			}
			backoff = nextBackoff(backoff)
			logger.Warn("Accept failed, retrying.", "error", err, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		backoff = 0

		id := s.nextID.Add(1)
		s.conns.Store(id, conn)
		// A connection accepted while shutting down would otherwise be missed
		// by the closer goroutine.
		if ctx.Err() != nil {
			conn.Close()
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.conns.Delete(id)
			s.handle(ctx, conn)
		}()
	}
}

// ListenAndServe binds the address and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
