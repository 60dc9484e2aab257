package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nitroScope/internal/chain"
	"nitroScope/internal/model"
)

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// CachedTokenMeta returns cached metadata or fetches it at block. A failed
// decimals read is logged and cached with model.DefaultDecimals.
func CachedTokenMeta(ctx context.Context, caller chain.Caller, token common.Address, block *big.Int, cache *TokenMetaCache, logger *zap.Logger) model.TokenMeta {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache != nil {
		if meta, ok := cache.Get(token); ok {
			return meta
		}
	}

	meta, err := FetchTokenMeta(ctx, caller, token, block, logger)
	if err != nil {
		logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
		meta.Decimals = model.DefaultDecimals
	}
	if cache != nil {
		cache.Set(token, meta)
	}
	return meta
}

// FetchTokenMeta reads decimals, symbol and name at block. Only a failed
// decimals read is an error; symbol and name are best effort.
func FetchTokenMeta(ctx context.Context, caller chain.Caller, token common.Address, block *big.Int, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, caller, token, parsed, "decimals", block)
	if err != nil {
		return meta, err
	}
	if meta.Decimals, err = asUint8(values[0]); err != nil {
		return meta, fmt.Errorf("decimals: %w", err)
	}

	for _, field := range []struct {
		method string
		dst    *string
	}{
		{"symbol", &meta.Symbol},
		{"name", &meta.Name},
	} {
		text, err := readText(ctx, caller, token, field.method, block)
		if err != nil {
			logger.Debug("token text read failed",
				zap.String("token", token.Hex()),
				zap.String("method", field.method),
				zap.Error(err),
			)
			continue
		}
		*field.dst = text
	}
	return meta, nil
}

// readText calls a string-returning ERC20 getter, retrying with the bytes32
// ABI used by older tokens.
func readText(ctx context.Context, caller chain.Caller, token common.Address, method string, block *big.Int) (string, error) {
	stringABI, err := ERC20ABI()
	if err != nil {
		return "", err
	}
	values, stringErr := callMethod(ctx, caller, token, stringABI, method, block)
	if stringErr == nil {
		if text, ok := values[0].(string); ok {
			return text, nil
		}
	}

	bytes32ABI, err := ERC20Bytes32ABI()
	if err != nil {
		return "", err
	}
	values, err = callMethod(ctx, caller, token, bytes32ABI, method, block)
	if err != nil {
		if stringErr != nil {
			return "", stringErr
		}
		return "", err
	}
	text, ok := bytes32ToString(values[0])
	if !ok {
		return "", fmt.Errorf("%s: unsupported type %T", method, values[0])
	}
	return text, nil
}

func callMethod(ctx context.Context, caller chain.Caller, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16, uint32, uint64:
		n, _ := asBigInt(v)
		return asUint8(n)
	case *big.Int:
		if v.Sign() < 0 || v.BitLen() > 8 {
			return 0, fmt.Errorf("value %s out of uint8 range", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
