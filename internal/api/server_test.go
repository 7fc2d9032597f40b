package api

import (
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/config"
	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
	"github.com/andrey/compressed-state/internal/indexer"
	"github.com/andrey/compressed-state/internal/prover"
)

type fakeIndexer struct {
	proofs        []indexer.AccountProof
	subtrees      []hash.Hash
	queue         []indexer.QueueElement
	addressProofs []indexedtree.NonInclusionProof
	validityProof prover.Proof
}

func (f *fakeIndexer) GetMultipleCompressedAccountProofs(hashes []hash.Hash) ([]indexer.AccountProof, error) {
	return f.proofs, nil
}

func (f *fakeIndexer) GetMultipleNewAddressProofs(treePubkey [32]byte, addresses []hash.Hash) ([]indexedtree.NonInclusionProof, error) {
	return f.addressProofs, nil
}

func (f *fakeIndexer) GetQueueElements(treePubkey [32]byte, batchIndex, start, limit int) ([]indexer.QueueElement, error) {
	return f.queue, nil
}

func (f *fakeIndexer) GetSubtrees(treePubkey [32]byte) ([]hash.Hash, error) {
	return f.subtrees, nil
}

func (f *fakeIndexer) GetValidityProof(ctx context.Context, cacheKey hash.Hash, req prover.Request) (prover.Proof, error) {
	return f.validityProof, nil
}

func TestServerRoutes(t *testing.T) {
	svc := &fakeIndexer{subtrees: []hash.Hash{{1}}, queue: []indexer.QueueElement{{Leaf: hash.Hash{2}}}}
	server := NewServer(svc, lgr.NoOp, &config.Config{})
	handler := server.SetupRoutes()

	pubkey := hex.EncodeToString(make([]byte, 32))
	zeroHash := hex.EncodeToString(make([]byte, 32))

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"health_check", "GET", "/health", "", http.StatusOK},
		{"compressed_account_proofs", "POST", "/api/proofs/compressed-accounts", `{"hashes":[]}`, http.StatusOK},
		{"subtrees", "GET", "/api/trees/" + pubkey + "/subtrees", "", http.StatusOK},
		{"queue_elements", "GET", "/api/trees/" + pubkey + "/batches/0/queue", "", http.StatusOK},
		{"new_address_proofs", "POST", "/api/trees/" + pubkey + "/address-proofs", `{"addresses":[]}`, http.StatusOK},
		{"validity_proof", "POST", "/api/validity-proof", `{"cache_key":"` + zeroHash + `","request":{}}`, http.StatusOK},
		{"not_found", "GET", "/api/nonexistent", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code, tt.name)
		})
	}
}

func TestRouteGrouping(t *testing.T) {
	svc := &fakeIndexer{}
	server := NewServer(svc, lgr.NoOp, &config.Config{})
	handler := server.SetupRoutes()

	pubkey := hex.EncodeToString(make([]byte, 32))
	req := httptest.NewRequest("GET", "/trees/"+pubkey+"/subtrees", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code, "route without /api prefix must not exist")
}
