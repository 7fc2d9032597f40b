// Package compressedaccount defines the compressed account payload of spec
// §3.6: the leaf content a compressed state tree (C3) or its batched
// on-chain account (C6) actually stores, and the canonical domain-separated
// hash used as its Merkle leaf.
package compressedaccount

import (
	"encoding/binary"

	"github.com/andrey/compressed-state/internal/hash"
)

// Pubkey is a 32-byte account owner identifier.
type Pubkey [32]byte

// Data is the optional on-chain program data a compressed account carries.
type Data struct {
	Discriminator [8]byte
	Data          []byte
	DataHash      hash.Hash
}

// Account is the compressed account payload of spec §3.6.
type Account struct {
	Owner    Pubkey
	Lamports uint64
	Address  *hash.Hash
	Data     *Data
}

// domain-separation tags distinguish the presence/absence of the optional
// fields so two accounts that differ only in whether address/data are set
// can never collide on their leaf hash.
const (
	tagNoAddrNoData   = byte(0)
	tagAddrNoData     = byte(1)
	tagNoAddrWithData = byte(2)
	tagAddrWithData   = byte(3)
)

// LeafHash computes the canonical, domain-separated Merkle leaf hash of
// (owner, lamports, address?, data_hash?), per spec §3.6.
func LeafHash(hasher hash.Hasher, a Account) hash.Hash {
	var lamportsBuf [8]byte
	binary.BigEndian.PutUint64(lamportsBuf[:], a.Lamports)

	tag := tagNoAddrNoData
	switch {
	case a.Address != nil && a.Data != nil:
		tag = tagAddrWithData
	case a.Address != nil:
		tag = tagAddrNoData
	case a.Data != nil:
		tag = tagNoAddrWithData
	}

	parts := [][]byte{{tag}, a.Owner[:], lamportsBuf[:]}
	if a.Address != nil {
		parts = append(parts, a.Address.Bytes())
	}
	if a.Data != nil {
		parts = append(parts, a.Data.DataHash.Bytes())
	}
	return hasher.HashV(parts...)
}
