package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Poseidon is the reference Hasher instantiation: a Poseidon-style sponge
// over the BN254 scalar field (github.com/consensys/gnark-crypto's fr.Element
// arithmetic). It operates on a width-3 state (rate 2, capacity 1), which is
// the standard configuration for a 2-to-1 compression function.
//
// The round constants below are generated deterministically at package init
// from a fixed domain-separated seed rather than copied from a specific
// production deployment's trusted parameter set — this module does not ship
// or verify circuits, so no verification key ties it to one fixed constant
// set. Any implementer wiring this against a real prover MUST replace
// roundConstants with the constants the circuit was compiled against.
type Poseidon struct {
	zeroCache []Hash
	zeroOnce  sync.Once
	zeroMu    sync.Mutex
}

const (
	poseidonWidth    = 3
	poseidonFullRounds = 8
	poseidonPartialRounds = 57
	maxZeroCacheLevel = 64
)

// NewPoseidon constructs the reference hasher.
func NewPoseidon() *Poseidon {
	return &Poseidon{}
}

var roundConstants [poseidonFullRounds + poseidonPartialRounds][poseidonWidth]fr.Element
var mdsMatrix [poseidonWidth][poseidonWidth]fr.Element
var constantsOnce sync.Once

func initConstants() {
	constantsOnce.Do(func() {
		counter := uint64(0)
		nextElement := func(domain string) fr.Element {
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], counter)
			counter++
			digest := sha256.Sum256(append([]byte("poseidon-bn254:"+domain+":"), buf[:]...))
			var e fr.Element
			e.SetBytes(digest[:])
			return e
		}
		for r := 0; r < poseidonFullRounds+poseidonPartialRounds; r++ {
			for w := 0; w < poseidonWidth; w++ {
				roundConstants[r][w] = nextElement("rc")
			}
		}
		// A Cauchy-style MDS matrix: M[i][j] = 1 / (x_i + y_j) for distinct
		// x_i, y_j, which is always invertible. x_i = i, y_j = width + j + 1
		// keeps every denominator non-zero.
		for i := 0; i < poseidonWidth; i++ {
			for j := 0; j < poseidonWidth; j++ {
				var denom, one fr.Element
				one.SetOne()
				denom.SetUint64(uint64(i + poseidonWidth + j + 1))
				mdsMatrix[i][j].Inverse(&denom)
				_ = one
			}
		}
	})
}

func sBox(x *fr.Element) {
	var x2, x4 fr.Element
	x2.Square(x)
	x4.Square(&x2)
	x.Mul(x, &x4)
}

func permute(state *[poseidonWidth]fr.Element) {
	initConstants()
	halfFull := poseidonFullRounds / 2
	applyRound := func(round int, full bool) {
		for w := 0; w < poseidonWidth; w++ {
			state[w].Add(&state[w], &roundConstants[round][w])
		}
		if full {
			for w := 0; w < poseidonWidth; w++ {
				sBox(&state[w])
			}
		} else {
			sBox(&state[0])
		}
		var next [poseidonWidth]fr.Element
		for i := 0; i < poseidonWidth; i++ {
			var acc fr.Element
			for j := 0; j < poseidonWidth; j++ {
				var term fr.Element
				term.Mul(&mdsMatrix[i][j], &state[j])
				acc.Add(&acc, &term)
			}
			next[i] = acc
		}
		*state = next
	}
	round := 0
	for i := 0; i < halfFull; i++ {
		applyRound(round, true)
		round++
	}
	for i := 0; i < poseidonPartialRounds; i++ {
		applyRound(round, false)
		round++
	}
	for i := 0; i < halfFull; i++ {
		applyRound(round, true)
		round++
	}
}

func hashToElement(b []byte) fr.Element {
	var e fr.Element
	e.SetBytes(b)
	return e
}

// Hash2 computes the 2-to-1 Poseidon compression used at every internal
// Merkle node: state = (a, b, 0), permute, output = state[0].
func (p *Poseidon) Hash2(a, b Hash) Hash {
	var state [poseidonWidth]fr.Element
	state[0] = hashToElement(a[:])
	state[1] = hashToElement(b[:])
	state[2].SetZero()
	permute(&state)
	out := state[0].Bytes()
	return Hash(out)
}

// HashV computes an n-to-1 Poseidon hash by sponge-absorbing each part (rate
// 2 per permutation) in order, which domain-separates by argument order.
func (p *Poseidon) HashV(parts ...[]byte) Hash {
	var state [poseidonWidth]fr.Element
	state[2].SetZero()
	for i := 0; i < len(parts); i += 2 {
		var e0 fr.Element
		e0 = hashToElement(parts[i])
		var sum0 fr.Element
		sum0.Add(&state[0], &e0)
		state[0] = sum0

		if i+1 < len(parts) {
			e1 := hashToElement(parts[i+1])
			var sum1 fr.Element
			sum1.Add(&state[1], &e1)
			state[1] = sum1
		}
		permute(&state)
	}
	out := state[0].Bytes()
	return Hash(out)
}

// ZeroBytes returns the hash of an all-zero subtree at the given level,
// memoized: zero(0) = 0, zero(n) = Hash2(zero(n-1), zero(n-1)).
func (p *Poseidon) ZeroBytes(level int) Hash {
	p.zeroMu.Lock()
	defer p.zeroMu.Unlock()
	if level < len(p.zeroCache) {
		return p.zeroCache[level]
	}
	if len(p.zeroCache) == 0 {
		p.zeroCache = append(p.zeroCache, Hash{})
	}
	for len(p.zeroCache) <= level {
		prev := p.zeroCache[len(p.zeroCache)-1]
		p.zeroCache = append(p.zeroCache, p.Hash2(prev, prev))
	}
	return p.zeroCache[level]
}

// FieldModulus returns the BN254 scalar field modulus that every Hash value
// produced by this hasher is guaranteed to be below.
func FieldModulus() *big.Int {
	return fr.Modulus()
}
