package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-pkgz/lgr"

	"github.com/andrey/compressed-state/internal/xerr"
)

// Client is the HTTP client for the prover oracle of spec §6.3. It retries
// transient failures (non-2xx, timeout) with exponential backoff; a
// StructuralInvalid response body is not retried.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     lgr.L
	maxElapsed time.Duration
}

// New constructs a Client against endpoint (the full $PROVE_PATH URL),
// with a 30s per-request timeout per spec §6.3 and maxElapsed bounding the
// total time spent retrying a single Prove call.
func New(endpoint string, logger lgr.L, maxElapsed time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
		logger:     logger,
		maxElapsed: maxElapsed,
	}
}

func (c *Client) doOnce(ctx context.Context, req Request) (Proof, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Proof{}, xerr.New(xerr.KindStructuralInvalid, fmt.Errorf("marshal prover request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Proof{}, xerr.New(xerr.KindStructuralInvalid, fmt.Errorf("build prover request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Proof{}, xerr.New(xerr.KindTransient, fmt.Errorf("prover request failed: %w", err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Logf("WARN failed to close prover response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Proof{}, xerr.New(xerr.KindTransient, fmt.Errorf("read prover response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Proof{}, xerr.New(xerr.KindTransient, fmt.Errorf("prover returned status %d: %s", resp.StatusCode, respBody))
	}

	var proof Proof
	if err := json.Unmarshal(respBody, &proof); err != nil {
		return Proof{}, xerr.New(xerr.KindStructuralInvalid, fmt.Errorf("decode prover response: %w", err))
	}
	return proof, nil
}

// Prove submits req to the prover oracle, retrying transient failures with
// exponential backoff up to c.maxElapsed. A StructuralInvalid error is
// returned immediately without retry.
func (c *Client) Prove(ctx context.Context, req Request) (Proof, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.maxElapsed

	var out Proof
	op := func() error {
		proof, err := c.doOnce(ctx, req)
		if err != nil {
			if !xerr.Is(err, xerr.KindTransient) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = proof
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return Proof{}, err
	}
	return out, nil
}
