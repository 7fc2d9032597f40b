package prover

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/xerr"
)

func TestProveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "old", req.OldRoot)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Proof{AR: "a", BS: "b", KRS: "c"})
	}))
	defer srv.Close()

	c := New(srv.URL, lgr.NoOp, 5*time.Second)
	proof, err := c.Prove(context.Background(), Request{OldRoot: "old"})
	require.NoError(t, err)
	assert.Equal(t, Proof{AR: "a", BS: "b", KRS: "c"}, proof)
}

func TestProveRetriesTransientFailure(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Proof{AR: "a"})
	}))
	defer srv.Close()

	c := New(srv.URL, lgr.NoOp, 5*time.Second)
	proof, err := c.Prove(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "a", proof.AR)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestProveGivesUpAfterMaxElapsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, lgr.NoOp, 200*time.Millisecond)
	_, err := c.Prove(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, xerr.Is(err, xerr.KindTransient))
}

func TestProveMalformedResponseNotRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, lgr.NoOp, 5*time.Second)
	_, err := c.Prove(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, xerr.Is(err, xerr.KindStructuralInvalid))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}
