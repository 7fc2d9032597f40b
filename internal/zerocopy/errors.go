package zerocopy

import "errors"

// Errors returned by the zero-copy primitives (spec C2). These are
// structural: a caller hitting one of them has a buffer that does not match
// the layout it claims, and the fix is at the call site, not a retry.
var (
	ErrFull                      = errors.New("zerocopy: vector full")
	ErrInsufficientMemoryAllocated = errors.New("zerocopy: insufficient memory allocated for buffer")
	ErrMemoryNotZeroed            = errors.New("zerocopy: backing buffer must be zeroed before first use")
	ErrLengthGreaterThanCapacity  = errors.New("zerocopy: length greater than capacity")
	ErrInvalidConversion          = errors.New("zerocopy: invalid conversion between length types")
)
