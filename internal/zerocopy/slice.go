package zerocopy

import "unsafe"

// Slice is a fixed-layout, zero-copy view over exactly `length` elements of
// T with no length prefix of its own — the caller (a ring buffer, a 2-D
// hash-chain array) already knows how many elements there are. It matches
// spec C2's ZeroCopySlice<L, T> (the L parameter there only bounds a
// conceptual maximum; this view has no length header to mismatch).
type Slice[T any] struct {
	buf      []byte
	elemSize int
	length   int
}

// NewSlice constructs a Slice of exactly `length` elements over buf, which
// must be at least length*sizeof(T) bytes.
func NewSlice[T any](buf []byte, length int) (*Slice[T], error) {
	var zeroT T
	elemSize := int(unsafe.Sizeof(zeroT))
	need := elemSize * length
	if len(buf) < need {
		return nil, ErrInsufficientMemoryAllocated
	}
	return &Slice[T]{buf: buf[:need:need], elemSize: elemSize, length: length}, nil
}

func (s *Slice[T]) Len() int { return s.length }

// Get returns a pointer to element i, aliasing the backing buffer.
func (s *Slice[T]) Get(i int) *T {
	off := i * s.elemSize
	return (*T)(unsafe.Pointer(&s.buf[off]))
}

// All returns the full backing array as a []T that aliases the buffer.
func (s *Slice[T]) All() []T {
	if s.length == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&s.buf[0])), s.length)
}

// Slice2D is a zero-copy [rows][cols]T view, used for the per-batch
// hash-chain store hashchain_store[K][Z] of spec §3.5/6.1.
type Slice2D[T any] struct {
	inner *Slice[T]
	cols  int
}

// NewSlice2D constructs a rows x cols view over buf.
func NewSlice2D[T any](buf []byte, rows, cols int) (*Slice2D[T], error) {
	inner, err := NewSlice[T](buf, rows*cols)
	if err != nil {
		return nil, err
	}
	return &Slice2D[T]{inner: inner, cols: cols}, nil
}

func (s *Slice2D[T]) Get(row, col int) *T {
	return s.inner.Get(row*s.cols+col)
}

func (s *Slice2D[T]) Rows() int { return s.inner.Len() / s.cols }
func (s *Slice2D[T]) Cols() int { return s.cols }
