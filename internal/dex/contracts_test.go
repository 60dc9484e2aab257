package dex

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nitroScope/internal/chain/chaintest"
)

var (
	testPool   = common.HexToAddress("0x824959a55907d5350e73e151Ff48DabC5A37a657")
	testNitro  = common.HexToAddress("0x53F973256F410d1D8b10ce72D03D8dBBD3b1066E")
	testUser   = common.HexToAddress("0x9492510BbCB93B6992d8b7Bb67888558E12DCac4")
	testToken0 = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testToken1 = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	testSpNFT  = common.HexToAddress("0x7647Da336cF43F894aC7A0bf87f04806b2E03bb8")
)

func TestFetchPair(t *testing.T) {
	pairABI, err := PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	fake := chaintest.NewFakeCaller()
	fake.MustSet(testPool, pairABI, "token0", nil, testToken0)
	fake.MustSet(testPool, pairABI, "token1", nil, testToken1)

	pair, err := FetchPair(context.Background(), fake, testPool, nil)
	if err != nil {
		t.Fatalf("fetch pair: %v", err)
	}
	if pair.Token0 != testToken0.Hex() || pair.Token1 != testToken1.Hex() {
		t.Fatalf("pair mismatch: %+v", pair)
	}
}

func TestBalanceOf(t *testing.T) {
	erc20, err := ERC20ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	fake := chaintest.NewFakeCaller()
	fake.MustSet(testToken0, erc20, "balanceOf", []interface{}{testUser}, big.NewInt(12345))

	bal, err := BalanceOf(context.Background(), fake, testToken0, testUser, nil)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if bal.Int64() != 12345 {
		t.Fatalf("balance mismatch: %s", bal)
	}

	if _, err := BalanceOf(context.Background(), fake, testToken1, testUser, nil); err == nil {
		t.Fatalf("expected error for unregistered call")
	}
}

func TestNitroPoolReads(t *testing.T) {
	nitroABI, err := NitroPoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	fake := chaintest.NewFakeCaller()
	fake.MustSet(testNitro, nitroABI, "userInfo", []interface{}{testUser},
		big.NewInt(50), big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4))
	fake.MustSet(testNitro, nitroABI, "totalDepositAmount", nil, big.NewInt(200))
	fake.MustSet(testNitro, nitroABI, "nftPool", nil, testSpNFT)

	nitro := NewNitroPool(fake, testNitro)
	ctx := context.Background()

	user, err := nitro.UserDeposit(ctx, testUser, nil)
	if err != nil || user.Int64() != 50 {
		t.Fatalf("user deposit: %v %v", user, err)
	}
	total, err := nitro.TotalDeposit(ctx, nil)
	if err != nil || total.Int64() != 200 {
		t.Fatalf("total deposit: %v %v", total, err)
	}
	nftPool, err := nitro.NFTPool(ctx, nil)
	if err != nil || nftPool != testSpNFT {
		t.Fatalf("nft pool: %v %v", nftPool, err)
	}
}

func TestSpNFTReads(t *testing.T) {
	spABI, err := SpNFTABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	lpToken := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	fake := chaintest.NewFakeCaller()
	fake.MustSet(testSpNFT, spABI, "getPoolInfo", nil,
		lpToken, testToken0, testToken1, big.NewInt(0), big.NewInt(0), big.NewInt(1000), big.NewInt(1500), big.NewInt(10))
	fake.MustSet(testSpNFT, spABI, "balanceOf", []interface{}{testUser}, big.NewInt(1))
	fake.MustSet(testSpNFT, spABI, "tokenOfOwnerByIndex", []interface{}{testUser, big.NewInt(0)}, big.NewInt(77))
	fake.MustSet(testSpNFT, spABI, "getStakingPosition", []interface{}{big.NewInt(77)},
		big.NewInt(400), big.NewInt(600), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0))

	sp := NewSpNFT(fake, testSpNFT)
	ctx := context.Background()

	info, err := sp.PoolInfo(ctx, nil)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if info.LPToken != lpToken || info.LPSupply.Int64() != 1000 {
		t.Fatalf("pool info mismatch: %+v", info)
	}

	count, err := sp.BalanceOf(ctx, testUser, nil)
	if err != nil || count != 1 {
		t.Fatalf("balanceOf: %d %v", count, err)
	}
	tokenID, err := sp.TokenOfOwnerByIndex(ctx, testUser, 0, nil)
	if err != nil || tokenID.Int64() != 77 {
		t.Fatalf("tokenOfOwnerByIndex: %v %v", tokenID, err)
	}
	amount, err := sp.StakingAmount(ctx, tokenID, nil)
	if err != nil || amount.Int64() != 400 {
		t.Fatalf("staking amount: %v %v", amount, err)
	}
}

func TestAlgebraPosition(t *testing.T) {
	algebraABI, err := AlgebraPositionsABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	manager := common.HexToAddress("0x00c7f3082833e796A5b3e4Bd59f6642FF44DCD15")
	operator := common.HexToAddress("0x0000000000000000000000000000000000000000")
	fake := chaintest.NewFakeCaller()
	fake.MustSet(manager, algebraABI, "positions", []interface{}{big.NewInt(9)},
		big.NewInt(0), operator, testToken0, testToken1, big.NewInt(-120), big.NewInt(120),
		big.NewInt(5555), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0))

	pos, err := NewAlgebraPositions(fake, manager).Position(context.Background(), big.NewInt(9), nil)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.Token0 != testToken0 || pos.Token1 != testToken1 || pos.Liquidity.Int64() != 5555 {
		t.Fatalf("position mismatch: %+v", pos)
	}
}

func TestCachedTokenMeta(t *testing.T) {
	erc20, err := ERC20ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	fake := chaintest.NewFakeCaller()
	fake.MustSet(testToken0, erc20, "decimals", nil, uint8(6))
	fake.MustSet(testToken0, erc20, "symbol", nil, "USDC")
	fake.MustSet(testToken0, erc20, "name", nil, "USD Coin")

	cache := NewTokenMetaCache()
	meta := CachedTokenMeta(context.Background(), fake, testToken0, nil, cache, zap.NewNop())
	if meta.Decimals != 6 || meta.Symbol != "USDC" || meta.Name != "USD Coin" {
		t.Fatalf("meta mismatch: %+v", meta)
	}

	calls := fake.Calls()
	_ = CachedTokenMeta(context.Background(), fake, testToken0, nil, cache, nil)
	if fake.Calls() != calls {
		t.Fatalf("expected cached lookup, calls went from %d to %d", calls, fake.Calls())
	}

	// token1 has no registered responses: decimals fall back to the default.
	fallback := CachedTokenMeta(context.Background(), fake, testToken1, nil, cache, nil)
	if fallback.Decimals != 18 {
		t.Fatalf("fallback decimals: got %d want 18", fallback.Decimals)
	}
}

func TestFetchTokenMetaBytes32Symbol(t *testing.T) {
	erc20, err := ERC20ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	legacy, err := ERC20Bytes32ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	var symbol [32]byte
	copy(symbol[:], "MKR")

	fake := chaintest.NewFakeCaller()
	fake.MustSet(testToken0, erc20, "decimals", nil, uint8(18))
	fake.MustSet(testToken0, legacy, "symbol", nil, symbol)

	meta, err := FetchTokenMeta(context.Background(), fake, testToken0, nil, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if meta.Symbol != "MKR" || meta.Name != "" || meta.Decimals != 18 {
		t.Fatalf("meta mismatch: %+v", meta)
	}
}

func TestAsUint8Range(t *testing.T) {
	if v, err := asUint8(big.NewInt(18)); err != nil || v != 18 {
		t.Fatalf("18: got %d, %v", v, err)
	}
	if v, err := asUint8(uint64(255)); err != nil || v != 255 {
		t.Fatalf("255: got %d, %v", v, err)
	}
	for _, value := range []interface{}{big.NewInt(256), big.NewInt(-1), uint16(300), uint64(1 << 40)} {
		if _, err := asUint8(value); err == nil {
			t.Fatalf("%v: expected range error", value)
		}
	}
}
