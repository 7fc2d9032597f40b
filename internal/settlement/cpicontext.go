package settlement

// Context is the optional scratch PDA of spec §4.7 "CPI context": it lets a
// caller accumulate inputs/outputs/addresses across multiple program
// invocations sharing one transaction, settling once at the end.
type Context struct {
	owner [32]byte
	ix    InstructionDataInvokeCpi
	set   bool
}

// WriteFirst overwrites the context's accumulated instruction data
// (write_to_cpi_context_first).
func (c *Context) WriteFirst(owner [32]byte, ix InstructionDataInvokeCpi) {
	c.owner = owner
	c.ix = ix
	c.set = true
}

// WriteSet appends more inputs/outputs/addresses to the accumulated
// instruction data (write_to_cpi_context_set). Proof, relay fee and
// compress/decompress lamports are not mergeable and must only be supplied
// once, by whichever call eventually drives Execute.
func (c *Context) WriteSet(owner [32]byte, ix InstructionDataInvokeCpi) error {
	if !c.set {
		c.WriteFirst(owner, ix)
		return nil
	}
	if c.owner != owner {
		return ErrUnauthorized
	}
	c.ix.InputCompressedAccounts = append(c.ix.InputCompressedAccounts, ix.InputCompressedAccounts...)
	c.ix.OutputCompressedAccounts = append(c.ix.OutputCompressedAccounts, ix.OutputCompressedAccounts...)
	c.ix.NewAddresses = append(c.ix.NewAddresses, ix.NewAddresses...)
	if ix.Proof != nil {
		c.ix.Proof = ix.Proof
	}
	if ix.RelayFee != nil {
		c.ix.RelayFee = ix.RelayFee
	}
	if ix.CompressOrDecompressLamports != nil {
		c.ix.CompressOrDecompressLamports = ix.CompressOrDecompressLamports
		c.ix.IsCompress = ix.IsCompress
	}
	return nil
}

// Execute drains the accumulated instruction data and runs the settlement
// algorithm against it (execute_cpi_context), resetting the context
// afterward regardless of outcome so a failed settlement cannot be replayed
// against stale accumulated state.
func (c *Context) Execute(
	v *Verifier,
	treePubkeys [][32]byte,
	trees []TreeAccount,
	unfinalized UnfinalizedChecker,
	writer OutputWriter,
) error {
	ix := c.ix
	c.ix = InstructionDataInvokeCpi{}
	c.set = false
	return v.Verify(ix, treePubkeys, trees, unfinalized, writer)
}
