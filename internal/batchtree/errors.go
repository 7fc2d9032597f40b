package batchtree

import "errors"

// Sentinel errors for the batched tree account (spec C6).
var (
	ErrNoBatchInFill    = errors.New("batchtree: no batch currently in fill")
	ErrBatchNotReady    = errors.New("batchtree: batch not ready_to_update_tree")
	ErrBatchAlreadyFull = errors.New("batchtree: batch already fully inserted")
)
