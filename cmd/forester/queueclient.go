package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andrey/compressed-state/internal/forester"
)

// indexerQueueClient implements forester.QueueReader against a remote
// cmd/indexer instance's REST surface, the way a real deployment runs the
// forester and indexer as separate processes sharing only the network API.
type indexerQueueClient struct {
	httpClient *http.Client
	baseURL    string
}

func newIndexerQueueClient(baseURL string) *indexerQueueClient {
	return &indexerQueueClient{httpClient: &http.Client{Timeout: 10 * time.Second}, baseURL: baseURL}
}

func (c *indexerQueueClient) GetQueueElements(treePubkey [32]byte, batchIndex, start, limit int) ([]forester.QueueElement, error) {
	url := fmt.Sprintf("%s/api/trees/%s/batches/%d/queue?start=%d&limit=%d",
		c.baseURL, hex.EncodeToString(treePubkey[:]), batchIndex, start, limit)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build queue request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch queue elements: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch queue elements: status %d", resp.StatusCode)
	}
	var elems []forester.QueueElement
	if err := json.NewDecoder(resp.Body).Decode(&elems); err != nil {
		return nil, fmt.Errorf("decode queue elements: %w", err)
	}
	return elems, nil
}
