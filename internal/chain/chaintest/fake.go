// Package chaintest provides an in-memory contract caller for tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// FakeCaller answers eth_call requests from registered ABI-encoded responses.
type FakeCaller struct {
	mu        sync.Mutex
	responses map[string][]byte
	failures  map[string]error
	calls     int
	blocks    []*big.Int
}

func NewFakeCaller() *FakeCaller {
	return &FakeCaller{
		responses: make(map[string][]byte),
		failures:  make(map[string]error),
	}
}

// Set registers the outputs returned for method(args...) on contract to.
func (f *FakeCaller) Set(to common.Address, parsed abi.ABI, method string, args []interface{}, outputs ...interface{}) error {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("pack %s input: %w", method, err)
	}
	m, ok := parsed.Methods[method]
	if !ok {
		return fmt.Errorf("unknown method %s", method)
	}
	resp, err := m.Outputs.Pack(outputs...)
	if err != nil {
		return fmt.Errorf("pack %s output: %w", method, err)
	}

	f.mu.Lock()
	f.responses[callKey(to, data)] = resp
	f.mu.Unlock()
	return nil
}

// MustSet is Set that panics on encoding errors.
func (f *FakeCaller) MustSet(to common.Address, parsed abi.ABI, method string, args []interface{}, outputs ...interface{}) {
	if err := f.Set(to, parsed, method, args, outputs...); err != nil {
		panic(err)
	}
}

// Fail makes method(args...) on contract to return err.
func (f *FakeCaller) Fail(to common.Address, parsed abi.ABI, method string, args []interface{}, err error) {
	data, packErr := parsed.Pack(method, args...)
	if packErr != nil {
		panic(packErr)
	}
	f.mu.Lock()
	f.failures[callKey(to, data)] = err
	f.mu.Unlock()
}

// Blocks returns the block argument of every call served so far, in call
// order. Calls made at latest are recorded as nil.
func (f *FakeCaller) Blocks() []*big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*big.Int, len(f.blocks))
	for i, b := range f.blocks {
		if b != nil {
			out[i] = new(big.Int).Set(b)
		}
	}
	return out
}

// Calls returns the number of calls served so far.
func (f *FakeCaller) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil {
		return nil, fmt.Errorf("missing call target")
	}

	key := callKey(*msg.To, msg.Data)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if blockNumber != nil {
		blockNumber = new(big.Int).Set(blockNumber)
	}
	f.blocks = append(f.blocks, blockNumber)

	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	resp, ok := f.responses[key]
	if !ok {
		return nil, fmt.Errorf("execution reverted: no response for %s", key)
	}
	return resp, nil
}

func callKey(to common.Address, data []byte) string {
	return strings.ToLower(to.Hex()) + ":" + hexutil.Encode(data)
}
