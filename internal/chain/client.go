package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultRPCURL is the public Arbitrum One gateway.
const DefaultRPCURL = "https://arb1.arbitrum.io/rpc"

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// BlockRef identifies the block a set of reads is pinned to.
type BlockRef struct {
	ChainID   uint64
	Number    uint64
	Timestamp uint64
}

// BigNumber returns Number for use as an eth_call block argument.
func (r BlockRef) BigNumber() *big.Int {
	return new(big.Int).SetUint64(r.Number)
}

// Client is a read-only Arbitrum client.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	chainID uint64
	tsCache map[uint64]uint64
}

// NewClient dials rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID, fetched once per client.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	id := c.chainID
	c.mu.RUnlock()
	if id != 0 {
		return id, nil
	}

	v, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain id: %w", err)
	}
	c.mu.Lock()
	c.chainID = v.Uint64()
	c.mu.Unlock()
	return v.Uint64(), nil
}

// Pin resolves requested (0 for the current head) to a BlockRef.
func (c *Client) Pin(ctx context.Context, requested uint64) (BlockRef, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return BlockRef{}, err
	}

	number := requested
	if number == 0 {
		number, err = c.ethClient.BlockNumber(ctx)
		if err != nil {
			return BlockRef{}, fmt.Errorf("latest block: %w", err)
		}
	}

	ts, err := c.blockTimestamp(ctx, number)
	if err != nil {
		return BlockRef{}, fmt.Errorf("block %d: %w", number, err)
	}
	return BlockRef{ChainID: chainID, Number: number, Timestamp: ts}, nil
}

func (c *Client) blockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.tsCache[number] = header.Time
	c.mu.Unlock()
	return header.Time, nil
}

// CallContract performs an eth_call.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
