package rpcnode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/require"
)

type rpcEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
}

func newStubServer(t *testing.T, result any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env rpcEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: env.ID, Result: result}))
	}))
}

func TestGetSlot(t *testing.T) {
	srv := newStubServer(t, uint64(12345))
	defer srv.Close()

	client, err := Dial(context.Background(), srv.URL, lgr.NoOp)
	require.NoError(t, err)
	defer client.Close()

	slot, err := client.GetSlot(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(12345), slot)
}

func TestGetLatestBlockhash(t *testing.T) {
	srv := newStubServer(t, Blockhash{Blockhash: "abc", LastValidBlockHeight: 99})
	defer srv.Close()

	client, err := Dial(context.Background(), srv.URL, lgr.NoOp)
	require.NoError(t, err)
	defer client.Close()

	bh, err := client.GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	require.Equal(t, "abc", bh.Blockhash)
	require.Equal(t, uint64(99), bh.LastValidBlockHeight)
}
