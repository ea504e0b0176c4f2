package protocol

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/adagraph/internal/container"
)

// ErrFraming is returned when a header cannot describe a valid frame.
var ErrFraming = errors.New("malformed frame header")

// Encode serializes cmd into a frame. The length field is always computed
// from the data container; Header.ContentLength is ignored.
func Encode(cmd Command) ([]byte, error) {
	length := cmd.FrameLength()
	buf := make([]byte, 0, length)

	buf = append(buf, cmd.Header.Version)
	buf = binary.BigEndian.AppendUint32(buf, length)
	buf = append(buf, byte(cmd.Header.Type))
	buf = append(buf, cmd.Header.Network[:]...)
	buf = append(buf, cmd.Header.Node[:]...)

	if cmd.Data != nil {
		var err error
		buf, err = cmd.Data.AppendBinary(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to encode command data: %w", err)
		}
	}
	return buf, nil
}

// DecodeHeader parses a 38-byte header. Unknown command types decode as
// Unknown; a buffer of the wrong size is a framing error.
//
// A length field shorter than the header itself (including 0) is also
// reported as ErrFraming, so such a frame is discarded by callers instead
// of being queued as a header-only command.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes, want %d", ErrFraming, len(buf), HeaderSize)
	}

	network, err := uuid.FromBytes(buf[6:22])
	if err != nil {
		return Header{}, fmt.Errorf("%w: network id: %v", ErrFraming, err)
	}
	node, err := uuid.FromBytes(buf[22:38])
	if err != nil {
		return Header{}, fmt.Errorf("%w: node id: %v", ErrFraming, err)
	}

	h := Header{
		Version:       buf[0],
		ContentLength: binary.BigEndian.Uint32(buf[1:5]),
		Type:          ParseCommandType(buf[5]),
		Network:       network,
		Node:          node,
	}
	if h.ContentLength < HeaderSize {
		return Header{}, fmt.Errorf("%w: frame length %d is shorter than the header", ErrFraming, h.ContentLength)
	}
	return h, nil
}

// DecodeBody parses the data container that starts at offset within buf.
func DecodeBody(ctx context.Context, buf []byte, offset int) (*container.Container, error) {
	return container.Decode(ctx, buf, offset)
}

// Decode parses a complete frame held in buf.
func Decode(ctx context.Context, buf []byte) (Command, error) {
	if len(buf) < HeaderSize {
		return Command{}, fmt.Errorf("%w: frame of %d bytes", ErrFraming, len(buf))
	}
	h, err := DecodeHeader(buf[:HeaderSize])
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Header: h}
	if h.DataLength() == 0 {
		return cmd, nil
	}
	if len(buf) < int(h.ContentLength) {
		return cmd, fmt.Errorf("%w: frame declares %d bytes, have %d", container.ErrBounds, h.ContentLength, len(buf))
	}
	data, err := DecodeBody(ctx, buf[HeaderSize:h.ContentLength], 0)
	if err != nil {
		return cmd, err
	}
	cmd.Data = data
	return cmd, nil
}
