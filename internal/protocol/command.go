package protocol

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vk/adagraph/internal/container"
)

// HeaderSize is the fixed size of a frame header: 1+4+1+16+16.
const HeaderSize = 38

// Version is the protocol version written by this implementation.
const Version uint8 = 1

// CommandType is the tagged enum carried in byte 5 of the header.
type CommandType uint8

const (
	Unknown         CommandType = 0
	CloseConnection CommandType = 1
	ExecuteNode     CommandType = 30
	PropagateNode   CommandType = 31
)

// ParseCommandType maps a wire byte to a CommandType. Unrecognized bytes map
// to Unknown so that newer peers do not break older servers.
func ParseCommandType(b byte) CommandType {
	switch t := CommandType(b); t {
	case CloseConnection, ExecuteNode, PropagateNode:
		return t
	default:
		return Unknown
	}
}

func (t CommandType) String() string {
	switch t {
	case CloseConnection:
		return "CloseConnection"
	case ExecuteNode:
		return "ExecuteNode"
	case PropagateNode:
		return "PropagateNode"
	default:
		return "Unknown"
	}
}

// Header is the decoded fixed part of a frame. uuid.Nil stands for an absent
// network or node.
type Header struct {
	Version       uint8
	ContentLength uint32
	Type          CommandType
	Network       uuid.UUID
	Node          uuid.UUID
}

// DataLength is the number of body bytes announced by the header.
func (h Header) DataLength() int {
	if h.ContentLength <= HeaderSize {
		return 0
	}
	return int(h.ContentLength - HeaderSize)
}

// LogValue implements slog.LogValuer.
func (h Header) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("version", int(h.Version)),
		slog.Any("length", h.ContentLength),
		slog.String("type", h.Type.String()),
		slog.String("network", h.Network.String()),
		slog.String("node", h.Node.String()),
	)
}

// Command is a header plus an optional data container. A nil Data means the
// frame carried no body or the body could not be decoded.
type Command struct {
	Header Header
	Data   *container.Container
}

// NewCommand returns a command of the given type addressed to node, using
// the current protocol version.
func NewCommand(t CommandType, network, node uuid.UUID, data *container.Container) Command {
	return Command{
		Header: Header{
			Version: Version,
			Type:    t,
			Network: network,
			Node:    node,
		},
		Data: data,
	}
}

// FrameLength is the total length the command occupies on the wire.
func (c Command) FrameLength() uint32 {
	if c.Data == nil {
		return HeaderSize
	}
	return HeaderSize + c.Data.Size()
}

func (c Command) String() string {
	return fmt.Sprintf("[Command][%s node=%s network=%s len=%d]", c.Header.Type, c.Header.Node, c.Header.Network, c.Header.ContentLength)
}

// LogValue implements slog.LogValuer.
func (c Command) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("header", c.Header),
		slog.Any("data", c.Data),
	)
}
