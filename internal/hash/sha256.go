package hash

import (
	"crypto/sha256"
	"sync"
)

// SHA256 is the alternate Hasher instantiation named in spec C1, for
// deployments that do not need a SNARK-friendly hash (e.g. trees whose
// validity is checked by signatures rather than a ZK circuit). Every output
// is passed through ToField so it remains a valid Hash under the same
// "< BN254 field modulus" contract Poseidon outputs satisfy, keeping the two
// Hasher implementations interchangeable everywhere a Hash is stored.
type SHA256 struct {
	zeroMu    sync.Mutex
	zeroCache []Hash
}

// NewSHA256 constructs the alternate hasher.
func NewSHA256() *SHA256 {
	return &SHA256{}
}

func (s *SHA256) Hash2(a, b Hash) Hash {
	return ToField(a[:], b[:])
}

func (s *SHA256) HashV(parts ...[]byte) Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(nil)
	var out Hash
	copy(out[:], sum)
	out[0] = 0
	return out
}

func (s *SHA256) ZeroBytes(level int) Hash {
	s.zeroMu.Lock()
	defer s.zeroMu.Unlock()
	if level < len(s.zeroCache) {
		return s.zeroCache[level]
	}
	if len(s.zeroCache) == 0 {
		s.zeroCache = append(s.zeroCache, Hash{})
	}
	for len(s.zeroCache) <= level {
		prev := s.zeroCache[len(s.zeroCache)-1]
		s.zeroCache = append(s.zeroCache, s.Hash2(prev, prev))
	}
	return s.zeroCache[level]
}

var _ Hasher = (*Poseidon)(nil)
var _ Hasher = (*SHA256)(nil)
