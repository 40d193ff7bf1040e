// Package keys implements the order-preserving composite key encoding.
//
// A key is an entity path followed by zero or more typed components. Encoded
// keys compare byte-wise in the same order as their components compare
// semantically, so a plain ordered KV store can answer range queries over them.
//
// Layout:
//
//	escaped(path) 0x00 0x01 { tag payload }*
//
// Path bytes escape 0x00 as 0x00 0xFF so the terminator always sorts below any
// continuation. Each component starts with a one-byte tag. Tags are ordered so
// that variants sort by fixed rank:
//
//	absent    0x01  (no payload)
//	int       0x10  8 bytes big-endian, sign bit flipped
//	uint      0x20  8 bytes big-endian
//	principal 0x30  escaped bytes, then 0x00 0x00
//	ulid      0x40  16 bytes
//	max       0xFF  upper bound marker, never stored
package keys
