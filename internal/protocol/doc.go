// Package protocol defines the binary command frame exchanged over TCP and
// the codec that moves it between bytes and Command values.
//
// A frame is a fixed 38-byte header optionally followed by a container block
// (see package container). Multi-byte integers are big-endian.
//
//	offset 0   u8      version
//	offset 1   u32     total frame length (38 + data block length)
//	offset 5   u8      command type
//	offset 6   [16]u8  network id (all zero when absent)
//	offset 22  [16]u8  node id    (all zero when absent)
//	offset 38  data block, present iff total frame length > 38
//
// The server never replies; frames flow one way.
package protocol
