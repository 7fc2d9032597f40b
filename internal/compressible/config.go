package compressible

import (
	"encoding/binary"

	"github.com/andrey/compressed-state/internal/compressedaccount"
)

// RentConfig parameterizes the lamports a compress/decompress round trip
// reclaims or re-funds.
type RentConfig struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
}

// LightConfig is the program-wide config PDA of spec §4.10: owned by the
// program's upgrade authority, it names the rent sponsor and the
// write_top_up every compressible PDA in AddressSpace is subject to.
type LightConfig struct {
	RentSponsor          compressedaccount.Pubkey
	CompressionAuthority compressedaccount.Pubkey
	RentConfig           RentConfig
	WriteTopUp           uint64
	AddressSpace         []compressedaccount.Pubkey
}

// programDataVariant is UpgradeableLoaderState::ProgramData's enum
// discriminant in the BPF upgradeable loader's account encoding.
const programDataVariant = uint32(3)

// programData is the subset of UpgradeableLoaderState::ProgramData this
// package needs: the slot it was last deployed at, and its upgrade
// authority (None once the program has been made immutable).
type programData struct {
	Slot                    uint64
	UpgradeAuthorityAddress *compressedaccount.Pubkey
}

// decodeProgramData parses a BPF upgradeable loader ProgramData account's
// raw bytes: a little-endian u32 enum tag, an 8-byte slot, then a
// Borsh-style Option<Pubkey> (a 1-byte presence flag followed by 32 bytes
// when present).
func decodeProgramData(raw []byte) (programData, error) {
	const headerLen = 4 + 8 + 1
	if len(raw) < headerLen {
		return programData{}, ErrInvalidProgramData
	}
	if binary.LittleEndian.Uint32(raw[0:4]) != programDataVariant {
		return programData{}, ErrInvalidProgramData
	}
	pd := programData{Slot: binary.LittleEndian.Uint64(raw[4:12])}
	switch raw[12] {
	case 0:
		return pd, nil
	case 1:
		if len(raw) < headerLen+32 {
			return programData{}, ErrInvalidProgramData
		}
		var authority compressedaccount.Pubkey
		copy(authority[:], raw[headerLen:headerLen+32])
		pd.UpgradeAuthorityAddress = &authority
		return pd, nil
	default:
		return programData{}, ErrInvalidProgramData
	}
}

// InitializeLightConfig deserializes the program's ProgramData account and
// verifies caller is its upgrade authority before building a LightConfig
// (spec §4.10, "Initialization is gated on the caller being the program's
// upgrade authority"). An immutable program (no upgrade authority set) can
// never pass this check, matching the loader's own semantics.
func InitializeLightConfig(programDataRaw []byte, caller compressedaccount.Pubkey, cfg LightConfig) (*LightConfig, error) {
	pd, err := decodeProgramData(programDataRaw)
	if err != nil {
		return nil, err
	}
	if pd.UpgradeAuthorityAddress == nil || *pd.UpgradeAuthorityAddress != caller {
		return nil, ErrNotUpgradeAuthority
	}
	out := cfg
	return &out, nil
}
