package queue

import "errors"

// Sentinel errors for the bounded queue (spec C5).
var (
	ErrDuplicateValue = errors.New("queue: duplicate value")
	ErrQueueFull      = errors.New("queue: full")
)
