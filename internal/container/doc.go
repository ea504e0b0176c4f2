// Package container implements the self-describing key/value payload that
// travels inside command frames and is handed to node actions.
//
// # Wire Format
//
// A container is serialized as a length-prefixed block. All integers are
// big-endian.
//
//	u32 declared_size            (counts itself and every entry)
//	repeated:
//	  u16 key_length
//	  key_length bytes of UTF-8 key
//	  u8  kind                   (1=Integer, 2=Float, 3=Text, 4=Boolean)
//	  value                      Integer: 4 bytes, Float: 8 bytes,
//	                             Text: UTF-8 bytes + NUL, Boolean: 1 byte
//
// Entries have no defined order. Decoding is lenient where the protocol has
// always been lenient (invalid keys, unknown kinds) and strict about bounds:
// Decode never reads past the declared block or the supplied buffer.
package container
