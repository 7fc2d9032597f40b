package indexer

import (
	"errors"

	"github.com/andrey/compressed-state/internal/xerr"
)

var (
	errUnknownTree   = errors.New("indexer: unknown tree")
	errLeafNotFound  = errors.New("indexer: leaf hash not found")
	errUnknownBatch  = errors.New("indexer: unknown batch account")
	errNoValidityKey = errors.New("indexer: validity proof requires at least one input hash or new address")
)

// Exported wrapped forms carry a Kind (spec §7) so callers across package
// boundaries (internal/api) can map them to a response without string
// matching; errors.Is still resolves against the underlying sentinel.
var (
	ErrUnknownTree   = xerr.New(xerr.KindNotFound, errUnknownTree)
	ErrLeafNotFound  = xerr.New(xerr.KindNotFound, errLeafNotFound)
	ErrUnknownBatch  = xerr.New(xerr.KindNotFound, errUnknownBatch)
	ErrNoValidityKey = xerr.New(xerr.KindStructuralInvalid, errNoValidityKey)
)
