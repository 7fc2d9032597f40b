package zerocopy

import "encoding/binary"

// U16, U32 and U64 are little-endian, unaligned scalar accessors over a
// window of a shared byte buffer. They never copy the buffer and never
// require it to be naturally aligned for the platform's native integer
// width — every read/write goes through encoding/binary.LittleEndian, which
// is explicitly safe on unaligned slices. Every multi-byte scalar field
// embedded in an on-chain account layout (C6) is one of these rather than a
// native Go integer field, so the account's wire layout is exactly its
// in-memory layout.
type U16 struct{ b []byte }
type U32 struct{ b []byte }
type U64 struct{ b []byte }

// NewU16 wraps a 2-byte window. The window must be exactly 2 bytes.
func NewU16(b []byte) U16 { return U16{b: b[:2:2]} }

// NewU32 wraps a 4-byte window. The window must be exactly 4 bytes.
func NewU32(b []byte) U32 { return U32{b: b[:4:4]} }

// NewU64 wraps an 8-byte window. The window must be exactly 8 bytes.
func NewU64(b []byte) U64 { return U64{b: b[:8:8]} }

func (u U16) Get() uint16   { return binary.LittleEndian.Uint16(u.b) }
func (u U16) Set(v uint16)  { binary.LittleEndian.PutUint16(u.b, v) }
func (u U32) Get() uint32   { return binary.LittleEndian.Uint32(u.b) }
func (u U32) Set(v uint32)  { binary.LittleEndian.PutUint32(u.b, v) }
func (u U64) Get() uint64   { return binary.LittleEndian.Uint64(u.b) }
func (u U64) Set(v uint64)  { binary.LittleEndian.PutUint64(u.b, v) }

// Bitmask is a single byte used in size-critical structs in place of
// several Option discriminants: bit i is set iff optional field i is
// present. This is the "bitmask byte" referenced in spec C2.
type Bitmask struct{ b []byte }

// NewBitmask wraps a single-byte window.
func NewBitmask(b []byte) Bitmask { return Bitmask{b: b[:1:1]} }

func (m Bitmask) Has(bit uint) bool { return m.b[0]&(1<<bit) != 0 }

func (m Bitmask) Set(bit uint, present bool) {
	if present {
		m.b[0] |= 1 << bit
	} else {
		m.b[0] &^= 1 << bit
	}
}
