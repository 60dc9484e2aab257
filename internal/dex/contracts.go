package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"nitroScope/internal/chain"
	"nitroScope/internal/model"
)

// FetchPair reads token0/token1 from a Camelot pair or LP token.
func FetchPair(ctx context.Context, caller chain.Caller, pool common.Address, block *big.Int) (model.Pair, error) {
	if caller == nil {
		return model.Pair{}, fmt.Errorf("chain caller is nil")
	}
	parsed, err := PairABI()
	if err != nil {
		return model.Pair{}, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := callMethod(ctx, caller, pool, parsed, "token0", block)
	if err != nil {
		return model.Pair{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return model.Pair{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, caller, pool, parsed, "token1", block)
	if err != nil {
		return model.Pair{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return model.Pair{}, fmt.Errorf("token1: %w", err)
	}

	return model.Pair{Token0: token0.Hex(), Token1: token1.Hex()}, nil
}

// BalanceOf returns the ERC20 balance of owner.
func BalanceOf(ctx context.Context, caller chain.Caller, token common.Address, owner common.Address, block *big.Int) (*big.Int, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, caller, token, parsed, "balanceOf", block, owner)
	if err != nil {
		return nil, err
	}
	bal, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return bal, nil
}

// NitroPool is a read-only binding to a Camelot Nitro pool.
type NitroPool struct {
	caller  chain.Caller
	address common.Address
}

func NewNitroPool(caller chain.Caller, address common.Address) *NitroPool {
	return &NitroPool{caller: caller, address: address}
}

func (n *NitroPool) Address() common.Address {
	return n.address
}

// UserDeposit returns userInfo(user).totalDepositAmount.
func (n *NitroPool) UserDeposit(ctx context.Context, user common.Address, block *big.Int) (*big.Int, error) {
	parsed, err := NitroPoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse nitro abi: %w", err)
	}
	values, err := callMethod(ctx, n.caller, n.address, parsed, "userInfo", block, user)
	if err != nil {
		return nil, err
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("userInfo: %w", err)
	}
	return amount, nil
}

// TotalDeposit returns totalDepositAmount().
func (n *NitroPool) TotalDeposit(ctx context.Context, block *big.Int) (*big.Int, error) {
	parsed, err := NitroPoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse nitro abi: %w", err)
	}
	values, err := callMethod(ctx, n.caller, n.address, parsed, "totalDepositAmount", block)
	if err != nil {
		return nil, err
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("totalDepositAmount: %w", err)
	}
	return amount, nil
}

// NFTPool returns the spNFT contract whose positions the Nitro pool accepts.
func (n *NitroPool) NFTPool(ctx context.Context, block *big.Int) (common.Address, error) {
	parsed, err := NitroPoolABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse nitro abi: %w", err)
	}
	values, err := callMethod(ctx, n.caller, n.address, parsed, "nftPool", block)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// enumerable covers the ERC721Enumerable subset shared by position contracts.
type enumerable struct {
	caller  chain.Caller
	address common.Address
	loadABI func() (abi.ABI, error)
}

func (e enumerable) Address() common.Address {
	return e.address
}

// BalanceOf returns the number of position tokens owned by owner.
func (e enumerable) BalanceOf(ctx context.Context, owner common.Address, block *big.Int) (uint64, error) {
	parsed, err := e.loadABI()
	if err != nil {
		return 0, err
	}
	values, err := callMethod(ctx, e.caller, e.address, parsed, "balanceOf", block, owner)
	if err != nil {
		return 0, err
	}
	count, err := asBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("balanceOf: %w", err)
	}
	if !count.IsUint64() {
		return 0, fmt.Errorf("balanceOf overflow: %s", count)
	}
	return count.Uint64(), nil
}

// TokenOfOwnerByIndex returns the token ID at index for owner.
func (e enumerable) TokenOfOwnerByIndex(ctx context.Context, owner common.Address, index uint64, block *big.Int) (*big.Int, error) {
	parsed, err := e.loadABI()
	if err != nil {
		return nil, err
	}
	values, err := callMethod(ctx, e.caller, e.address, parsed, "tokenOfOwnerByIndex", block, owner, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// SpNFTPoolInfo is the subset of getPoolInfo used for valuation.
type SpNFTPoolInfo struct {
	LPToken  common.Address
	LPSupply *big.Int
}

// SpNFT is a read-only binding to a Camelot NFTPool (spNFT) contract.
type SpNFT struct {
	enumerable
}

func NewSpNFT(caller chain.Caller, address common.Address) *SpNFT {
	return &SpNFT{enumerable{caller: caller, address: address, loadABI: SpNFTABI}}
}

// PoolInfo returns the LP token staked by this spNFT contract.
func (s *SpNFT) PoolInfo(ctx context.Context, block *big.Int) (SpNFTPoolInfo, error) {
	parsed, err := s.loadABI()
	if err != nil {
		return SpNFTPoolInfo{}, err
	}
	values, err := callMethod(ctx, s.caller, s.address, parsed, "getPoolInfo", block)
	if err != nil {
		return SpNFTPoolInfo{}, err
	}
	if len(values) < 6 {
		return SpNFTPoolInfo{}, fmt.Errorf("getPoolInfo return size %d", len(values))
	}
	lpToken, err := asAddress(values[0])
	if err != nil {
		return SpNFTPoolInfo{}, fmt.Errorf("lpToken: %w", err)
	}
	lpSupply, err := asBigInt(values[5])
	if err != nil {
		return SpNFTPoolInfo{}, fmt.Errorf("lpSupply: %w", err)
	}
	return SpNFTPoolInfo{LPToken: lpToken, LPSupply: lpSupply}, nil
}

// StakingAmount returns getStakingPosition(tokenID).amount.
func (s *SpNFT) StakingAmount(ctx context.Context, tokenID *big.Int, block *big.Int) (*big.Int, error) {
	parsed, err := s.loadABI()
	if err != nil {
		return nil, err
	}
	values, err := callMethod(ctx, s.caller, s.address, parsed, "getStakingPosition", block, tokenID)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// AlgebraPosition is the subset of positions(tokenId) used for valuation.
type AlgebraPosition struct {
	Token0    common.Address
	Token1    common.Address
	Liquidity *big.Int
}

// AlgebraPositions is a read-only binding to an Algebra position manager.
type AlgebraPositions struct {
	enumerable
}

func NewAlgebraPositions(caller chain.Caller, address common.Address) *AlgebraPositions {
	return &AlgebraPositions{enumerable{caller: caller, address: address, loadABI: AlgebraPositionsABI}}
}

// Position returns the pair and liquidity of tokenID.
func (a *AlgebraPositions) Position(ctx context.Context, tokenID *big.Int, block *big.Int) (AlgebraPosition, error) {
	parsed, err := a.loadABI()
	if err != nil {
		return AlgebraPosition{}, err
	}
	values, err := callMethod(ctx, a.caller, a.address, parsed, "positions", block, tokenID)
	if err != nil {
		return AlgebraPosition{}, err
	}
	if len(values) < 7 {
		return AlgebraPosition{}, fmt.Errorf("positions return size %d", len(values))
	}
	token0, err := asAddress(values[2])
	if err != nil {
		return AlgebraPosition{}, fmt.Errorf("token0: %w", err)
	}
	token1, err := asAddress(values[3])
	if err != nil {
		return AlgebraPosition{}, fmt.Errorf("token1: %w", err)
	}
	liquidity, err := asBigInt(values[6])
	if err != nil {
		return AlgebraPosition{}, fmt.Errorf("liquidity: %w", err)
	}
	return AlgebraPosition{Token0: token0, Token1: token1, Liquidity: liquidity}, nil
}
