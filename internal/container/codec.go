package container

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/vk/adagraph/internal/ctxlog"
)

const (
	// SizePrefixLen is the width of the declared size at the start of a block.
	SizePrefixLen = 4
	// MaxKeyLen is the longest key the u16 length field can describe.
	MaxKeyLen = math.MaxUint16
	// InvalidKey replaces keys that are not valid UTF-8.
	InvalidKey = "unknown"
)

var (
	// ErrBounds is returned when a block declares more bytes than it has.
	ErrBounds = errors.New("data block exceeds buffer bounds")
	// ErrKeyTooLong is returned when a key does not fit the u16 length field.
	ErrKeyTooLong = errors.New("key exceeds maximum length")
	// ErrTextContainsNUL is returned when a Text value holds the byte that
	// terminates it on the wire.
	ErrTextContainsNUL = errors.New("text value contains a NUL byte")
)

// Size returns the serialized size of the container, including the 4-byte
// size prefix.
func (c *Container) Size() uint32 {
	size := uint32(SizePrefixLen)
	c.Range(func(k string, v Value) bool {
		size += 2 + uint32(len(k)) + 1 + uint32(v.EncodedLen())
		return true
	})
	return size
}

// MarshalBinary encodes the container into a new buffer.
func (c *Container) MarshalBinary() ([]byte, error) {
	return c.AppendBinary(make([]byte, 0, c.Size()))
}

// AppendBinary appends the encoded container to dst.
func (c *Container) AppendBinary(dst []byte) ([]byte, error) {
	dst = binary.BigEndian.AppendUint32(dst, c.Size())

	var err error
	c.Range(func(k string, v Value) bool {
		if len(k) > MaxKeyLen {
			err = fmt.Errorf("%w: %d bytes", ErrKeyTooLong, len(k))
			return false
		}
		dst = binary.BigEndian.AppendUint16(dst, uint16(len(k)))
		dst = append(dst, k...)
		dst = append(dst, byte(v.kind))

		switch v.kind {
		case KindInteger:
			dst = binary.BigEndian.AppendUint32(dst, uint32(v.i))
		case KindFloat:
			dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(v.f))
		case KindText:
			if strings.IndexByte(v.s, 0) >= 0 {
				err = fmt.Errorf("%w: key %q", ErrTextContainsNUL, k)
				return false
			}
			dst = append(dst, v.s...)
			dst = append(dst, 0)
		case KindBoolean:
			if v.b {
				dst = append(dst, 1)
			} else {
				dst = append(dst, 0)
			}
		default:
			err = fmt.Errorf("cannot encode value of %s for key %q", v.kind, k)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// Decode parses a container block that starts at offset within buf.
//
// The declared size bounds every read: entries are consumed until it is
// exhausted and a truncated entry yields ErrBounds. Keys that are not valid
// UTF-8 are stored as InvalidKey. An unknown kind tag is logged and its entry
// dropped; decoding resumes at the byte after the tag.
func Decode(ctx context.Context, buf []byte, offset int) (*Container, error) {
	logger := ctxlog.FromContext(ctx)

	if offset < 0 || offset > len(buf) || len(buf)-offset < SizePrefixLen {
		return nil, fmt.Errorf("%w: no size prefix at offset %d of %d bytes", ErrBounds, offset, len(buf))
	}
	declared := int(binary.BigEndian.Uint32(buf[offset:]))
	if declared < SizePrefixLen || declared > len(buf)-offset {
		return nil, fmt.Errorf("%w: declared size %d at offset %d, buffer holds %d bytes", ErrBounds, declared, offset, len(buf))
	}
	logger.Debug("Reading data block.", "size", declared)

	end := offset + declared
	pos := offset + SizePrefixLen
	c := New()

	for pos < end {
		if end-pos < 2 {
			return nil, fmt.Errorf("%w: truncated key length at %d", ErrBounds, pos)
		}
		keyLen := int(binary.BigEndian.Uint16(buf[pos:]))
		pos += 2

		// The key is always followed by at least the kind tag.
		if end-pos < keyLen+1 {
			return nil, fmt.Errorf("%w: truncated key at %d", ErrBounds, pos)
		}
		rawKey := buf[pos : pos+keyLen]
		pos += keyLen

		key := string(rawKey)
		if !utf8.Valid(rawKey) {
			logger.Warn("Data block key is not valid UTF-8, substituting.", "key", InvalidKey)
			key = InvalidKey
		}

		kind := Kind(buf[pos])
		pos++

		var (
			v     Value
			width int
		)
		switch kind {
		case KindInteger:
			width = 4
		case KindFloat:
			width = 8
		case KindBoolean:
			width = 1
		case KindText:
			region := buf[pos:end]
			if n := bytes.IndexByte(region, 0); n >= 0 {
				v = Text(strings.ToValidUTF8(string(region[:n]), "\uFFFD"))
				pos += n + 1
			} else {
				// No terminator: the text runs to the end of the block.
				v = Text(strings.ToValidUTF8(string(region), "\uFFFD"))
				pos = end
			}
		default:
			logger.Warn("Unknown data type encountered, skipping key-value pair.", "key", key, "kind", uint8(kind))
			continue
		}

		if width > 0 {
			if end-pos < width {
				return nil, fmt.Errorf("%w: truncated %s value for key %q", ErrBounds, kind, key)
			}
			raw := buf[pos : pos+width]
			switch kind {
			case KindInteger:
				v = Int(int32(binary.BigEndian.Uint32(raw)))
			case KindFloat:
				v = Float(math.Float64frombits(binary.BigEndian.Uint64(raw)))
			case KindBoolean:
				v = Bool(raw[0] != 0)
			}
			pos += width
		}

		c.Set(key, v)
	}

	return c, nil
}
