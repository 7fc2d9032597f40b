package compressible

import "errors"

var (
	ErrAlreadyCompressed   = errors.New("compressible: account already compressed")
	ErrAlreadyDecompressed = errors.New("compressible: account already decompressed")
	ErrNotUpgradeAuthority = errors.New("compressible: caller is not the program's upgrade authority")
	ErrInvalidProgramData  = errors.New("compressible: malformed BPF upgradeable loader ProgramData account")
)
