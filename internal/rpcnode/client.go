// Package rpcnode implements the Solana-family JSON-RPC surface of spec
// §6.4: get_account, get_multiple_accounts, get_program_accounts[V2],
// send_transaction, simulate_transaction, get_slot, get_latest_blockhash.
//
// These methods are reused verbatim from the upstream JSON-RPC wire
// protocol, so rather than hand-rolling an HTTP/JSON transport this package
// rides on go-ethereum's generic gethrpc.Client: the transport
// (batched JSON-RPC 2.0 over HTTP, with context-aware cancellation) is
// identical across chains, only the method names and payload shapes
// differ.
package rpcnode

import (
	"context"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/go-pkgz/lgr"
)

// Client is a thin, typed wrapper over the shared JSON-RPC transport.
type Client struct {
	rpc    *gethrpc.Client
	logger lgr.L
}

// Dial connects to a Solana-family RPC endpoint (a URL, or a named cluster
// the caller has already resolved to one).
func Dial(ctx context.Context, endpoint string, logger lgr.L) (*Client, error) {
	rc, err := gethrpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("rpcnode: dial %s: %w", endpoint, err)
	}
	return &Client{rpc: rc, logger: logger}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// AccountInfo mirrors the RPC's getAccountInfo result value.
type AccountInfo struct {
	Owner     string `json:"owner"`
	Lamports  uint64 `json:"lamports"`
	Data      []byte `json:"data"`
	RentEpoch uint64 `json:"rentEpoch"`
}

// GetAccount implements get_account.
func (c *Client) GetAccount(ctx context.Context, pubkey string) (*AccountInfo, error) {
	var out AccountInfo
	if err := c.rpc.CallContext(ctx, &out, "get_account", pubkey); err != nil {
		return nil, fmt.Errorf("rpcnode: get_account %s: %w", pubkey, err)
	}
	return &out, nil
}

// GetMultipleAccounts implements get_multiple_accounts.
func (c *Client) GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*AccountInfo, error) {
	var out []*AccountInfo
	if err := c.rpc.CallContext(ctx, &out, "get_multiple_accounts", pubkeys); err != nil {
		return nil, fmt.Errorf("rpcnode: get_multiple_accounts: %w", err)
	}
	return out, nil
}

// ProgramAccount is one entry of a get_program_accounts(V2) result.
type ProgramAccount struct {
	Pubkey  string      `json:"pubkey"`
	Account AccountInfo `json:"account"`
}

// ProgramAccountsPage is getProgramAccountsV2's paginated result shape
// (spec §6.4: "paginated via a paginationKey cursor").
type ProgramAccountsPage struct {
	Accounts      []ProgramAccount `json:"accounts"`
	PaginationKey string           `json:"paginationKey"`
}

// GetProgramAccounts implements the unpaginated get_program_accounts call.
func (c *Client) GetProgramAccounts(ctx context.Context, program string) ([]ProgramAccount, error) {
	var out []ProgramAccount
	if err := c.rpc.CallContext(ctx, &out, "get_program_accounts", program); err != nil {
		return nil, fmt.Errorf("rpcnode: get_program_accounts %s: %w", program, err)
	}
	return out, nil
}

// GetProgramAccountsV2 implements the paginated variant: callers loop,
// threading paginationKey forward, until the returned key is empty.
func (c *Client) GetProgramAccountsV2(ctx context.Context, program, paginationKey string) (ProgramAccountsPage, error) {
	var out ProgramAccountsPage
	if err := c.rpc.CallContext(ctx, &out, "getProgramAccountsV2", program, paginationKey); err != nil {
		return ProgramAccountsPage{}, fmt.Errorf("rpcnode: get_program_accounts_v2 %s: %w", program, err)
	}
	return out, nil
}

// SendTransaction implements send_transaction, returning the transaction
// signature.
func (c *Client) SendTransaction(ctx context.Context, encodedTx string) (string, error) {
	var sig string
	if err := c.rpc.CallContext(ctx, &sig, "send_transaction", encodedTx); err != nil {
		return "", fmt.Errorf("rpcnode: send_transaction: %w", err)
	}
	return sig, nil
}

// SimulationResult mirrors simulate_transaction's result value.
type SimulationResult struct {
	Err           any      `json:"err"`
	Logs          []string `json:"logs"`
	UnitsConsumed uint64   `json:"unitsConsumed"`
}

// SimulateTransaction implements simulate_transaction.
func (c *Client) SimulateTransaction(ctx context.Context, encodedTx string) (*SimulationResult, error) {
	var out SimulationResult
	if err := c.rpc.CallContext(ctx, &out, "simulate_transaction", encodedTx); err != nil {
		return nil, fmt.Errorf("rpcnode: simulate_transaction: %w", err)
	}
	return &out, nil
}

// GetSlot implements get_slot.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.rpc.CallContext(ctx, &slot, "get_slot"); err != nil {
		return 0, fmt.Errorf("rpcnode: get_slot: %w", err)
	}
	return slot, nil
}

// Blockhash mirrors get_latest_blockhash's result value.
type Blockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// GetLatestBlockhash implements get_latest_blockhash.
func (c *Client) GetLatestBlockhash(ctx context.Context) (*Blockhash, error) {
	var out Blockhash
	if err := c.rpc.CallContext(ctx, &out, "get_latest_blockhash"); err != nil {
		return nil, fmt.Errorf("rpcnode: get_latest_blockhash: %w", err)
	}
	return &out, nil
}
