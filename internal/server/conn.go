package server

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/protocol"
)

// handle runs the read loop of one connection until the peer goes away, an
// I/O error occurs, or the client asks to close.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	ctx = ctxlog.With(ctx, "remote_addr", conn.RemoteAddr().String())
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Connection accepted.")

	header := make([]byte, protocol.HeaderSize)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			s.logReadError(ctx, err)
			return
		}

		h, err := protocol.DecodeHeader(header)
		if err != nil {
			logger.Debug("Dropping malformed header.", "error", err)
			continue
		}

		cmd := protocol.Command{Header: h}
		if n := h.DataLength(); n > 0 {
			if h.ContentLength > s.cfg.MaxFrameSize {
				logger.Warn("Frame exceeds the maximum size, closing connection.",
					"content_length", h.ContentLength, "max_frame_size", s.cfg.MaxFrameSize)
				return
			}

			body := make([]byte, n)
			if _, err := io.ReadFull(conn, body); err != nil {
				logger.Warn("Failed to read command body, queueing header only.", "command", h, "error", err)
				s.queue.Push(cmd)
				return
			}

			data, err := protocol.DecodeBody(ctx, body, 0)
			if err != nil {
				logger.Warn("Failed to decode command data, queueing header only.", "command", h, "error", err)
			} else {
				cmd.Data = data
				if declared := binary.BigEndian.Uint32(body); int(declared) < len(body) {
					logger.Warn("Command data is shorter than the frame body, ignoring trailing bytes.",
						"command", h, "data_size", declared, "body_size", len(body))
				}
			}
		}

		s.queue.Push(cmd)
		logger.Debug("Command queued.", "command", cmd)

		if h.Type == protocol.CloseConnection {
			logger.Debug("Client requested close.")
			return
		}
	}
}

func (s *Server) logReadError(ctx context.Context, err error) {
	logger := ctxlog.FromContext(ctx)
	switch {
	case errors.Is(err, io.EOF):
		logger.Debug("Client closed connection.")
	case errors.Is(err, net.ErrClosed) || ctx.Err() != nil:
		logger.Debug("Connection closed by server shutdown.")
	default:
		logger.Error("Connection read failed, closing.", "error", err)
	}
}
