package collateral

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nitroScope/internal/chain/chaintest"
	"nitroScope/internal/dex"
	"nitroScope/internal/valuation"
)

var (
	user   = common.HexToAddress("0x9492510BbCB93B6992d8b7Bb67888558E12DCac4")
	pool   = common.HexToAddress("0x824959a55907d5350e73e151Ff48DabC5A37a657")
	nitro  = common.HexToAddress("0x53F973256F410d1D8b10ce72D03D8dBBD3b1066E")
	spNFT  = common.HexToAddress("0x7647Da336cF43F894aC7A0bf87f04806b2E03bb8")
	weth   = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	usdc   = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	scales = map[common.Address]*big.Int{
		weth: big.NewInt(1_000_000_000_000_000_000),
		usdc: big.NewInt(1_000_000),
	}
)

func scaled(token common.Address, n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), scales[token])
}

func newFake(t *testing.T) *chaintest.FakeCaller {
	t.Helper()
	erc20, err := dex.ERC20ABI()
	require.NoError(t, err)

	fake := chaintest.NewFakeCaller()
	fake.MustSet(weth, erc20, "decimals", nil, uint8(18))
	fake.MustSet(weth, erc20, "symbol", nil, "WETH")
	fake.MustSet(weth, erc20, "name", nil, "Wrapped Ether")
	fake.MustSet(usdc, erc20, "decimals", nil, uint8(6))
	fake.MustSet(usdc, erc20, "symbol", nil, "USDC")
	fake.MustSet(usdc, erc20, "name", nil, "USD Coin")

	balances := map[common.Address][4]int64{
		// user, pool, nitro, spNFT
		weth: {2, 100, 0, 0},
		usdc: {50, 200000, 0, 0},
	}
	for token, bals := range balances {
		for i, holder := range []common.Address{user, pool, nitro, spNFT} {
			fake.MustSet(token, erc20, "balanceOf", []interface{}{holder}, scaled(token, bals[i]))
		}
	}
	return fake
}

func TestReporterApportionsByRatio(t *testing.T) {
	reporter := NewReporter(newFake(t), nil, nil)
	loc := Locations{User: user, Pool: pool, Nitro: nitro, Positions: []common.Address{spNFT}}

	tokens, err := reporter.Report(context.Background(), []common.Address{weth, usdc}, loc, 0.25, nil)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	assert.Equal(t, "WETH", tokens[0].Symbol)
	assert.Equal(t, uint8(18), tokens[0].Decimals)
	assert.InDelta(t, 2.0, tokens[0].UserBalance, 1e-9)
	assert.InDelta(t, 100.0, tokens[0].PoolBalance, 1e-9)
	assert.InDelta(t, 25.0, tokens[0].UserShare, 1e-9)

	assert.Equal(t, "USDC", tokens[1].Symbol)
	assert.Equal(t, uint8(6), tokens[1].Decimals)
	assert.InDelta(t, 50000.0, tokens[1].UserShare, 1e-6)
}

func TestReporterShareNeverExceedsLocation(t *testing.T) {
	reporter := NewReporter(newFake(t), nil, nil)
	loc := Locations{User: user, Pool: pool, Nitro: nitro, Positions: []common.Address{spNFT}}

	tokens, err := reporter.Report(context.Background(), []common.Address{weth, usdc}, loc, 1, nil)
	require.NoError(t, err)
	for _, token := range tokens {
		assert.LessOrEqual(t, token.UserShare, token.AttributableBalance())
	}

	_, err = reporter.Report(context.Background(), []common.Address{weth}, loc, 1.5, nil)
	assert.ErrorIs(t, err, valuation.ErrInsufficientData)
}

func TestReporterSkipsZeroLocations(t *testing.T) {
	reporter := NewReporter(newFake(t), nil, nil)

	tokens, err := reporter.Balances(context.Background(), []common.Address{weth}, Locations{User: user, Pool: pool}, nil)
	require.NoError(t, err)
	assert.Zero(t, tokens[0].NitroBalance)
	assert.Zero(t, tokens[0].PositionBalance)
}

func TestReporterBalanceFailure(t *testing.T) {
	fake := newFake(t)
	erc20, err := dex.ERC20ABI()
	require.NoError(t, err)
	fake.Fail(usdc, erc20, "balanceOf", []interface{}{nitro}, errors.New("header not found"))

	reporter := NewReporter(fake, nil, nil)
	_, err = reporter.Balances(context.Background(), []common.Address{weth, usdc}, Locations{User: user, Pool: pool, Nitro: nitro}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header not found")
}
