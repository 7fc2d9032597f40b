package forester

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-pkgz/lgr"

	"github.com/andrey/compressed-state/internal/batchtree"
	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/merkletree"
	"github.com/andrey/compressed-state/internal/prover"
	"github.com/andrey/compressed-state/internal/xerr"
)

// Forester runs one independent pipeline per registered tree, each on its
// own ticker (cross-tree parallelism); within a tree, cycles never overlap
// (per-tree strict seriality), matching spec §4.9.
type Forester struct {
	hasher    hash.Hasher
	queue     QueueReader
	prover    ProofRequester
	submitter Submitter
	logger    lgr.L
	cfg       Config

	mu   sync.Mutex
	jobs []*TreeJob
}

// New constructs a Forester against the given tree queue reader, prover
// client and on-chain submitter.
func New(hasher hash.Hasher, queue QueueReader, proverClient ProofRequester, submitter Submitter, logger lgr.L, cfg Config) *Forester {
	return &Forester{
		hasher:    hasher,
		queue:     queue,
		prover:    proverClient,
		submitter: submitter,
		logger:    logger,
		cfg:       cfg,
	}
}

// Register adds job to the set of trees this Forester drives. Must be
// called before Start.
func (f *Forester) Register(job *TreeJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
}

// Start launches one goroutine per registered tree and blocks until ctx is
// cancelled, at which point every pipeline drains its current cycle and
// returns.
func (f *Forester) Start(ctx context.Context) {
	f.mu.Lock()
	jobs := make([]*TreeJob, len(f.jobs))
	copy(jobs, f.jobs)
	f.mu.Unlock()

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(job *TreeJob) {
			defer wg.Done()
			f.runJobLoop(ctx, job)
		}(job)
	}
	wg.Wait()
}

func (f *Forester) runJobLoop(ctx context.Context, job *TreeJob) {
	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	f.logger.Logf("INFO forester pipeline started for tree %x", job.Pubkey)
	for {
		select {
		case <-ctx.Done():
			f.logger.Logf("INFO forester pipeline stopped for tree %x", job.Pubkey)
			return
		case <-ticker.C:
			if err := f.runCycle(ctx, job); err != nil {
				if xerr.Is(err, xerr.KindConsistencyViolation) {
					f.logger.Logf("ERROR forester tree %x hash-chain mismatch, alerting: %v", job.Pubkey, err)
					continue
				}
				f.logger.Logf("WARN forester cycle failed for tree %x: %v", job.Pubkey, err)
			}
		}
	}
}

// runCycle executes spec §4.9's pipeline once for the batch slot currently
// ready to update, if any: snapshot queue, validate hash chain, compute
// the candidate root transition, fetch a proof, submit, and advance the
// batch's lifecycle once the submission lands.
func (f *Forester) runCycle(ctx context.Context, job *TreeJob) error {
	batchIndex, subIndex, ready := nextReadySubBatch(job.Batch)
	if !ready {
		return nil
	}

	switch job.Kind {
	case KindState:
		return f.runStateCycle(ctx, job, batchIndex, subIndex)
	case KindAddress:
		return f.runAddressCycle(ctx, job, batchIndex, subIndex)
	default:
		return fmt.Errorf("forester: unknown tree kind %d", job.Kind)
	}
}

// nextReadySubBatch finds a batch slot in StateReadyToUpdateTree and
// returns the next sub-batch index it still needs proved.
func nextReadySubBatch(acc *batchtree.Account) (batchIndex, subIndex int, ready bool) {
	for i, b := range acc.Batches() {
		if b.State == batchtree.StateReadyToUpdateTree && b.NumInsertedZkps < acc.SubBatchesPerBatch() {
			return i, b.NumInsertedZkps, true
		}
	}
	return 0, 0, false
}

func (f *Forester) runStateCycle(ctx context.Context, job *TreeJob, batchIndex, subIndex int) error {
	start := uint64(batchIndex*job.Batch.BatchSize() + subIndex*job.Batch.ZkpBatchSize())
	elems, err := f.queue.GetQueueElements(job.Pubkey, batchIndex, subIndex*job.Batch.ZkpBatchSize(), job.Batch.ZkpBatchSize())
	if err != nil {
		return xerr.New(xerr.KindTransient, fmt.Errorf("snapshot queue: %w", err))
	}
	if len(elems) != job.Batch.ZkpBatchSize() {
		return xerr.New(xerr.KindTransient, fmt.Errorf("queue not yet fully populated: got %d want %d", len(elems), job.Batch.ZkpBatchSize()))
	}
	leaves, auxes := splitQueueElements(elems)

	if !job.Batch.VerifyHashChain(f.hasher, batchIndex, subIndex, start, leaves, auxes) {
		return xerr.New(xerr.KindConsistencyViolation, fmt.Errorf("hash-chain mismatch for tree %x batch %d sub %d", job.Pubkey, batchIndex, subIndex))
	}

	rehearsal := job.State.Clone()
	oldRoot := rehearsal.Root()
	subtreesBefore := rehearsal.Frontier()
	for _, leaf := range leaves {
		if _, err := rehearsal.Append(leaf); err != nil {
			return xerr.New(xerr.KindConsistencyViolation, fmt.Errorf("rehearsal append: %w", err))
		}
	}
	newRoot := rehearsal.Root()

	req := prover.Request{
		OldRoot:         oldRoot.String(),
		NewRoot:         newRoot.String(),
		LeavesHashchain: job.Batch.HashChain(batchIndex, subIndex).String(),
		StartIndex:      start,
		NewLeaves:       hashesToHex(leaves),
		Subtrees:        hashesToHex(subtreesBefore),
		TxHashes:        hashesToHex(auxes),
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = f.cfg.MaxElapsed

	var proof prover.Proof
	op := func() error {
		p, err := f.prover.Prove(ctx, req)
		if err != nil {
			return err
		}
		proof = p
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return xerr.New(xerr.KindTransient, fmt.Errorf("prove: %w", err))
	}

	oldRootIndex := rootIndexOf(job.State, oldRoot)
	if err := f.submitter.SubmitBatchUpdateStateTree(ctx, job.Pubkey, batchIndex, newRoot, oldRootIndex, proof); err != nil {
		return xerr.New(xerr.KindTransient, fmt.Errorf("submit batch_update_state_tree: %w", err))
	}

	for _, leaf := range leaves {
		if _, err := job.State.Append(leaf); err != nil {
			return xerr.New(xerr.KindConsistencyViolation, fmt.Errorf("commit append after submission landed: %w", err))
		}
	}
	if err := job.Batch.ApplyZKUpdate(batchIndex, newRoot); err != nil {
		return xerr.New(xerr.KindConsistencyViolation, fmt.Errorf("apply_zk_update bookkeeping: %w", err))
	}
	f.logger.Logf("INFO forester applied sub-batch %d/%d for tree %x, new_root=%s", subIndex, job.Batch.SubBatchesPerBatch(), job.Pubkey, newRoot)
	return nil
}

// runAddressCycle mirrors runStateCycle for an indexed (address) tree.
// Unlike the state cycle it does not rehearse against a Clone: the low
// element located for insertion k+1 depends on the just-inserted value k,
// so the whole sub-batch must be applied to compute the next low element
// either way, and indexedtree.Tree carries no cheap clone. A failed submit
// therefore leaves job.Address ahead of the last submitted root; the next
// cycle's hash-chain check against the queue snapshot (not against
// job.Address's root) is what catches a drifted retry.
func (f *Forester) runAddressCycle(ctx context.Context, job *TreeJob, batchIndex, subIndex int) error {
	start := uint64(batchIndex*job.Batch.BatchSize() + subIndex*job.Batch.ZkpBatchSize())
	elems, err := f.queue.GetQueueElements(job.Pubkey, batchIndex, subIndex*job.Batch.ZkpBatchSize(), job.Batch.ZkpBatchSize())
	if err != nil {
		return xerr.New(xerr.KindTransient, fmt.Errorf("snapshot address queue: %w", err))
	}
	if len(elems) != job.Batch.ZkpBatchSize() {
		return xerr.New(xerr.KindTransient, fmt.Errorf("address queue not yet fully populated: got %d want %d", len(elems), job.Batch.ZkpBatchSize()))
	}
	addrs, auxes := splitQueueElements(elems)

	if !job.Batch.VerifyHashChain(f.hasher, batchIndex, subIndex, start, addrs, auxes) {
		return xerr.New(xerr.KindConsistencyViolation, fmt.Errorf("hash-chain mismatch for address tree %x batch %d sub %d", job.Pubkey, batchIndex, subIndex))
	}

	oldRootHash := hash.Hash{}
	newRootHash := hash.Hash{}
	lowElemValues := make([]string, 0, len(addrs))
	lowElemIndices := make([]uint64, 0, len(addrs))
	lowElemNextValues := make([]string, 0, len(addrs))
	lowElemNextIndices := make([]uint64, 0, len(addrs))

	for i, addr := range addrs {
		if i == 0 {
			oldRootHash = job.Address.Root()
		}
		proof, err := job.Address.Prove(addr)
		if err != nil {
			return xerr.New(xerr.KindConsistencyViolation, fmt.Errorf("prove low element for %s: %w", addr, err))
		}
		lowElemValues = append(lowElemValues, proof.LowLeaf.Value.String())
		lowElemIndices = append(lowElemIndices, proof.LowLeafIndex)
		lowElemNextValues = append(lowElemNextValues, proof.LowLeaf.NextValue.String())
		lowElemNextIndices = append(lowElemNextIndices, proof.LowLeaf.NextIndex)

		if _, err := job.Address.Insert(addr); err != nil {
			return xerr.New(xerr.KindConsistencyViolation, fmt.Errorf("rehearsal insert: %w", err))
		}
		newRootHash = job.Address.Root()
	}

	req := prover.Request{
		OldRoot:               oldRootHash.String(),
		NewRoot:               newRootHash.String(),
		LeavesHashchain:       job.Batch.HashChain(batchIndex, subIndex).String(),
		StartIndex:            start,
		NewLeaves:             hashesToHex(addrs),
		LowElementValues:      lowElemValues,
		LowElementIndices:     lowElemIndices,
		LowElementNextValues:  lowElemNextValues,
		LowElementNextIndices: lowElemNextIndices,
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = f.cfg.MaxElapsed

	var proof prover.Proof
	op := func() error {
		p, err := f.prover.Prove(ctx, req)
		if err != nil {
			return err
		}
		proof = p
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return xerr.New(xerr.KindTransient, fmt.Errorf("prove: %w", err))
	}

	if err := f.submitter.SubmitBatchUpdateAddressTree(ctx, job.Pubkey, batchIndex, newRootHash, 0, proof); err != nil {
		return xerr.New(xerr.KindTransient, fmt.Errorf("submit batch_update_address_tree: %w", err))
	}
	if err := job.Batch.ApplyZKUpdate(batchIndex, newRootHash); err != nil {
		return xerr.New(xerr.KindConsistencyViolation, fmt.Errorf("apply_zk_update bookkeeping: %w", err))
	}
	f.logger.Logf("INFO forester applied address sub-batch %d/%d for tree %x, new_root=%s", subIndex, job.Batch.SubBatchesPerBatch(), job.Pubkey, newRootHash)
	return nil
}

// rootIndexOf finds root's position in tree's root-history ring, for the
// batch_update instruction's old_root_index field (spec §6.2). Returns 0
// if not found, which is safe here since oldRoot was read from the tree
// itself moments earlier and cannot yet have rolled out of the ring.
func rootIndexOf(tree *merkletree.Tree, root hash.Hash) uint16 {
	history := tree.RootHistory()
	for i, entry := range history {
		if entry.Root == root {
			return uint16(i)
		}
	}
	return 0
}

// splitQueueElements separates a queue snapshot into the leaf hashes and
// their hash-chain auxiliaries (tx_hash for nullifier entries, zero for
// output-queue/address-queue entries), matching the order VerifyHashChain
// and the prover request both expect.
func splitQueueElements(elems []QueueElement) (leaves, auxes []hash.Hash) {
	leaves = make([]hash.Hash, len(elems))
	auxes = make([]hash.Hash, len(elems))
	for i, e := range elems {
		leaves[i] = e.Leaf
		auxes[i] = e.TxHash
	}
	return leaves, auxes
}

func hashesToHex(hs []hash.Hash) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.String()
	}
	return out
}
