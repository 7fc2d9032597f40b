package zerocopy

import "unsafe"

// Unsigned constrains the length/capacity prefix type of a Vec, matching
// spec C2's L ∈ {u8,u16,u32,u64}.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func scalarSize[L Unsigned]() int {
	var zero L
	return int(unsafe.Sizeof(zero))
}

func readScalar[L Unsigned](b []byte) uint64 {
	var zero L
	switch any(zero).(type) {
	case uint8:
		return uint64(b[0])
	case uint16:
		return uint64(b[0]) | uint64(b[1])<<8
	case uint32:
		var v uint32
		for i := 0; i < 4; i++ {
			v |= uint32(b[i]) << (8 * i)
		}
		return uint64(v)
	default: // uint64
		var v uint64
		for i := 0; i < 8; i++ {
			v |= uint64(b[i]) << (8 * i)
		}
		return v
	}
}

func writeScalar[L Unsigned](b []byte, v uint64) {
	var zero L
	switch any(zero).(type) {
	case uint8:
		b[0] = byte(v)
	case uint16:
		b[0] = byte(v)
		b[1] = byte(v >> 8)
	case uint32:
		for i := 0; i < 4; i++ {
			b[i] = byte(v >> (8 * i))
		}
	default: // uint64
		for i := 0; i < 8; i++ {
			b[i] = byte(v >> (8 * i))
		}
	}
}

// Vec is a fixed-layout, zero-copy view over a byte buffer laid out as
// [len L][cap L][elements [cap]T], matching spec C2's ZeroCopyVec<L, T>.
// Cap is fixed at construction (first-use) and never changes thereafter;
// Len grows via Push up to Cap. T must be a fixed-size, pointer-free type
// (a byte array or a struct of such) so that casting a buffer window
// directly to *T is sound — this module only ever instantiates Vec with
// hash.Hash or small fixed structs of integers and hash.Hash fields.
type Vec[L Unsigned, T any] struct {
	buf      []byte
	dataOff  int
	elemSize int
	capLen   int
}

// NewVec constructs (or re-attaches to) a Vec backed by buf, which must be
// at least headerSize + elemSize*capacity bytes. On first use (a buffer of
// all zero bytes in the length/cap header) this stamps capacity into the
// header; on re-attach to a previously-initialized buffer, the stored
// capacity must match the requested one.
func NewVec[L Unsigned, T any](buf []byte, capacity int) (*Vec[L, T], error) {
	var zeroT T
	elemSize := int(unsafe.Sizeof(zeroT))
	lSize := scalarSize[L]()
	headerSize := 2 * lSize
	need := headerSize + elemSize*capacity
	if len(buf) < need {
		return nil, ErrInsufficientMemoryAllocated
	}
	v := &Vec[L, T]{buf: buf[:need:need], dataOff: headerSize, elemSize: elemSize, capLen: capacity}

	existingLen := readScalar[L](v.buf[0:lSize])
	existingCap := readScalar[L](v.buf[lSize : 2*lSize])
	if existingLen == 0 && existingCap == 0 {
		writeScalar[L](v.buf[lSize:2*lSize], uint64(capacity))
		return v, nil
	}
	if int(existingCap) != capacity {
		return nil, ErrInvalidConversion
	}
	if existingLen > existingCap {
		return nil, ErrLengthGreaterThanCapacity
	}
	return v, nil
}

func (v *Vec[L, T]) lSize() int { return scalarSize[L]() }

// Len returns the current number of populated elements.
func (v *Vec[L, T]) Len() int {
	return int(readScalar[L](v.buf[0:v.lSize()]))
}

// Cap returns the fixed capacity stamped at construction.
func (v *Vec[L, T]) Cap() int { return v.capLen }

func (v *Vec[L, T]) setLen(n int) {
	writeScalar[L](v.buf[0:v.lSize()], uint64(n))
}

func (v *Vec[L, T]) elemOffset(i int) int {
	return v.dataOff + i*v.elemSize
}

// Get returns a pointer to element i, aliasing the backing buffer (no
// copy). i must be < Len().
func (v *Vec[L, T]) Get(i int) *T {
	off := v.elemOffset(i)
	return (*T)(unsafe.Pointer(&v.buf[off]))
}

// Slice returns the populated prefix of the backing array as a []T that
// aliases the buffer.
func (v *Vec[L, T]) Slice() []T {
	n := v.Len()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&v.buf[v.dataOff])), n)
}

// Push appends val, growing Len by one. Returns ErrFull if Len == Cap.
func (v *Vec[L, T]) Push(val T) error {
	n := v.Len()
	if n >= v.capLen {
		return ErrFull
	}
	*v.Get(n) = val
	v.setLen(n + 1)
	return nil
}

// HeaderAndElementSize reports the total byte size a Vec with the given
// capacity requires, for callers sizing an account buffer up front.
func HeaderAndElementSize[L Unsigned, T any](capacity int) int {
	var zeroT T
	return 2*scalarSize[L]() + int(unsafe.Sizeof(zeroT))*capacity
}
