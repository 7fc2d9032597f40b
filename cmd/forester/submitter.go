package main

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/prover"
	"github.com/andrey/compressed-state/internal/rpcnode"
	"github.com/andrey/compressed-state/pkg/program"
)

// rpcSubmitter implements forester.Submitter by encoding a
// batch_update_{state,address}_tree instruction (spec §6.2) and sending it
// through the Solana-family RPC client.
type rpcSubmitter struct {
	rpc *rpcnode.Client
}

func encodeBatchUpdate(op program.Opcode, treePubkey [32]byte, batchIndex int, newRoot hash.Hash, oldRootIndex uint16, proof prover.Proof) string {
	buf := []byte{byte(op)}
	buf = append(buf, treePubkey[:]...)
	var batchIdxBuf [4]byte
	binary.LittleEndian.PutUint32(batchIdxBuf[:], uint32(batchIndex))
	buf = append(buf, batchIdxBuf[:]...)
	buf = append(buf, newRoot[:]...)
	var rootIdxBuf [2]byte
	binary.LittleEndian.PutUint16(rootIdxBuf[:], oldRootIndex)
	buf = append(buf, rootIdxBuf[:]...)
	buf = append(buf, []byte(proof.AR)...)
	buf = append(buf, []byte(proof.BS)...)
	buf = append(buf, []byte(proof.KRS)...)
	return base64.StdEncoding.EncodeToString(buf)
}

func (s *rpcSubmitter) SubmitBatchUpdateStateTree(ctx context.Context, treePubkey [32]byte, batchIndex int, newRoot hash.Hash, oldRootIndex uint16, proof prover.Proof) error {
	encoded := encodeBatchUpdate(program.OpBatchUpdateStateTree, treePubkey, batchIndex, newRoot, oldRootIndex, proof)
	sig, err := s.rpc.SendTransaction(ctx, encoded)
	if err != nil {
		return fmt.Errorf("submit batch_update_state_tree: %w", err)
	}
	_ = sig
	return nil
}

func (s *rpcSubmitter) SubmitBatchUpdateAddressTree(ctx context.Context, treePubkey [32]byte, batchIndex int, newRoot hash.Hash, oldRootIndex uint16, proof prover.Proof) error {
	encoded := encodeBatchUpdate(program.OpBatchUpdateAddressTree, treePubkey, batchIndex, newRoot, oldRootIndex, proof)
	sig, err := s.rpc.SendTransaction(ctx, encoded)
	if err != nil {
		return fmt.Errorf("submit batch_update_address_tree: %w", err)
	}
	_ = sig
	return nil
}
