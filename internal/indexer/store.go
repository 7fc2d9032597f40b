package indexer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-pkgz/lgr"

	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/prover"
)

// leafLocation is the authoritative mapping the indexer maintains from a
// compressed-account (or address) leaf hash to where it currently lives,
// so a later get_multiple_compressed_account_proofs call does not need to
// linearly scan every registered tree.
type leafLocation struct {
	TreePubkey [32]byte
	LeafIndex  uint64
	IsAddress  bool
}

// Store persists leafLocation mappings and cached validity proofs across
// restarts. Keyed the same way BadgerClient keys epoch snapshots: a
// human-sortable prefix plus a hex-encoded hash, so prefix scans over one
// tree's leaves are possible if ever needed.
type Store struct {
	db     *badger.DB
	logger lgr.L
}

// NewStore opens (or creates) the badger database at dbPath.
func NewStore(logger lgr.L, dbPath string) (*Store, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = newBadgerLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open indexer badger database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func leafKey(h hash.Hash) []byte {
	return []byte("leaf:" + hex.EncodeToString(h[:]))
}

func proofKey(cacheKey hash.Hash) []byte {
	return []byte("validity_proof:" + hex.EncodeToString(cacheKey[:]))
}

// PutLeafLocation records where leaf currently lives.
func (s *Store) PutLeafLocation(leaf hash.Hash, loc leafLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshal leaf location: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(leafKey(leaf), data)
	})
}

// GetLeafLocation looks up where leaf currently lives.
func (s *Store) GetLeafLocation(leaf hash.Hash) (leafLocation, error) {
	var loc leafLocation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(leafKey(leaf))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &loc)
		})
	})
	if err == badger.ErrKeyNotFound {
		return leafLocation{}, ErrLeafNotFound
	}
	if err != nil {
		return leafLocation{}, fmt.Errorf("get leaf location: %w", err)
	}
	return loc, nil
}

// PutValidityProof caches a Groth16 proof already computed for cacheKey
// (the hash of the ordered public-inputs vector it was computed over), so
// repeated get_validity_proof calls for the same settlement do not
// re-invoke the prover oracle.
func (s *Store) PutValidityProof(cacheKey hash.Hash, proof prover.Proof) error {
	data, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("marshal validity proof: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(proofKey(cacheKey), data)
	})
}

// GetValidityProof returns a previously cached proof, if any.
func (s *Store) GetValidityProof(cacheKey hash.Hash) (prover.Proof, bool, error) {
	var proof prover.Proof
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(proofKey(cacheKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &proof)
		})
	})
	if err == badger.ErrKeyNotFound {
		return prover.Proof{}, false, nil
	}
	if err != nil {
		return prover.Proof{}, false, fmt.Errorf("get validity proof: %w", err)
	}
	return proof, true, nil
}

// badgerLogger adapts lgr.L to badger's Logger interface, matching the
// teacher's internal/infra/storage adapter.
type badgerLogger struct {
	lgr lgr.L
}

func newBadgerLogger(l lgr.L) *badgerLogger { return &badgerLogger{lgr: l} }

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.lgr.Logf("ERROR "+format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.lgr.Logf("WARN "+format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.lgr.Logf("INFO "+format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.lgr.Logf("DEBUG "+format, args...) }
