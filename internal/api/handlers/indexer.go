package handlers

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-pkgz/lgr"

	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
	"github.com/andrey/compressed-state/internal/indexer"
	"github.com/andrey/compressed-state/internal/prover"
)

// Service is the subset of *indexer.Indexer this API surfaces: its five
// queries, get_validity_proof among them.
type Service interface {
	GetMultipleCompressedAccountProofs(hashes []hash.Hash) ([]indexer.AccountProof, error)
	GetMultipleNewAddressProofs(treePubkey [32]byte, addresses []hash.Hash) ([]indexedtree.NonInclusionProof, error)
	GetQueueElements(treePubkey [32]byte, batchIndex, start, limit int) ([]indexer.QueueElement, error)
	GetSubtrees(treePubkey [32]byte) ([]hash.Hash, error)
	GetValidityProof(ctx context.Context, cacheKey hash.Hash, req prover.Request) (prover.Proof, error)
}

// IndexerHandler exposes Service over HTTP for cmd/indexer.
type IndexerHandler struct {
	svc    Service
	logger lgr.L
}

func NewIndexerHandler(svc Service, logger lgr.L) *IndexerHandler {
	return &IndexerHandler{svc: svc, logger: logger}
}

func parseHash(s string) (hash.Hash, bool) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return hash.Hash{}, false
	}
	return hash.BytesToHash(b), true
}

func parseTreePubkey(s string) ([32]byte, bool) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return [32]byte{}, false
	}
	var out [32]byte
	copy(out[:], b)
	return out, true
}

// compressedAccountProofsRequest is get_multiple_compressed_account_proofs's body.
type compressedAccountProofsRequest struct {
	Hashes []string `json:"hashes"`
}

// HandleGetMultipleCompressedAccountProofs answers
// POST /api/proofs/compressed-accounts.
func (h *IndexerHandler) HandleGetMultipleCompressedAccountProofs(w http.ResponseWriter, r *http.Request) {
	var req compressedAccountProofsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, err, "invalid request body")
		return
	}
	hashes := make([]hash.Hash, 0, len(req.Hashes))
	for _, s := range req.Hashes {
		hv, ok := parseHash(s)
		if !ok {
			writeErrorResponse(w, indexer.ErrLeafNotFound, "malformed hash "+s)
			return
		}
		hashes = append(hashes, hv)
	}
	proofs, err := h.svc.GetMultipleCompressedAccountProofs(hashes)
	if err != nil {
		writeErrorResponse(w, err, "failed to fetch compressed account proofs")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(proofs)
}

// HandleGetQueueElements answers
// GET /api/trees/{pubkey}/batches/{batchIndex}/queue?start=&limit=.
func (h *IndexerHandler) HandleGetQueueElements(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := parseTreePubkey(r.PathValue("pubkey"))
	if !ok {
		writeErrorResponse(w, indexer.ErrUnknownTree, "malformed tree pubkey")
		return
	}
	batchIndex, err := strconv.Atoi(r.PathValue("batchIndex"))
	if err != nil {
		writeErrorResponse(w, err, "malformed batch index")
		return
	}
	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	leaves, err := h.svc.GetQueueElements(pubkey, batchIndex, start, limit)
	if err != nil {
		writeErrorResponse(w, err, "failed to fetch queue elements")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(leaves)
}

// newAddressProofsRequest is get_multiple_new_address_proofs's body.
type newAddressProofsRequest struct {
	Addresses []string `json:"addresses"`
}

// HandleGetMultipleNewAddressProofs answers
// POST /api/trees/{pubkey}/address-proofs.
func (h *IndexerHandler) HandleGetMultipleNewAddressProofs(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := parseTreePubkey(r.PathValue("pubkey"))
	if !ok {
		writeErrorResponse(w, indexer.ErrUnknownTree, "malformed tree pubkey")
		return
	}
	var req newAddressProofsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, err, "invalid request body")
		return
	}
	addrs := make([]hash.Hash, 0, len(req.Addresses))
	for _, s := range req.Addresses {
		hv, ok := parseHash(s)
		if !ok {
			writeErrorResponse(w, indexer.ErrLeafNotFound, "malformed address "+s)
			return
		}
		addrs = append(addrs, hv)
	}
	proofs, err := h.svc.GetMultipleNewAddressProofs(pubkey, addrs)
	if err != nil {
		writeErrorResponse(w, err, "failed to fetch new address proofs")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(proofs)
}

// validityProofRequest is get_validity_proof's body: the caller-assembled
// public-inputs cache key plus the prover request to issue on a cache miss.
type validityProofRequest struct {
	CacheKey string        `json:"cache_key"`
	Request  prover.Request `json:"request"`
}

// HandleGetValidityProof answers POST /api/validity-proof.
func (h *IndexerHandler) HandleGetValidityProof(w http.ResponseWriter, r *http.Request) {
	var req validityProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, err, "invalid request body")
		return
	}
	cacheKey, ok := parseHash(req.CacheKey)
	if !ok {
		writeErrorResponse(w, indexer.ErrLeafNotFound, "malformed cache key")
		return
	}
	proof, err := h.svc.GetValidityProof(r.Context(), cacheKey, req.Request)
	if err != nil {
		writeErrorResponse(w, err, "failed to fetch validity proof")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(proof)
}

// HandleGetSubtrees answers GET /api/trees/{pubkey}/subtrees.
func (h *IndexerHandler) HandleGetSubtrees(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := parseTreePubkey(r.PathValue("pubkey"))
	if !ok {
		writeErrorResponse(w, indexer.ErrUnknownTree, "malformed tree pubkey")
		return
	}
	subtrees, err := h.svc.GetSubtrees(pubkey)
	if err != nil {
		writeErrorResponse(w, err, "failed to fetch subtrees")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subtrees)
}
