package position

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nitroScope/internal/chain"
	"nitroScope/internal/dex"
	"nitroScope/internal/model"
	"nitroScope/internal/units"
)

// DefaultAlgebraPositions is Camelot's V3 (Algebra) position manager on Arbitrum.
const DefaultAlgebraPositions = "0x00c7f3082833e796A5b3e4Bd59f6642FF44DCD15"

const (
	defaultConcurrency  = 8
	defaultMaxPositions = 1000
)

// ErrTooManyPositions is returned when a contract reports more positions for
// an owner than Config.MaxPositions allows.
var ErrTooManyPositions = errors.New("too many positions")

// Config controls which position contracts are walked.
type Config struct {
	// AlgebraPositions is the Algebra position manager; the zero address
	// disables the source.
	AlgebraPositions common.Address
	SpNFTs           []common.Address
	Policy           MismatchPolicy
	Concurrency      int
	// MaxPositions caps the balanceOf count walked per contract.
	MaxPositions uint64
}

// Aggregator reads a user's positions from chain and aggregates them.
type Aggregator struct {
	cfg        Config
	caller     chain.Caller
	tokenCache *dex.TokenMetaCache
	logger     *zap.Logger
}

func NewAggregator(cfg Config, caller chain.Caller, tokenCache *dex.TokenMetaCache, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenCache == nil {
		tokenCache = dex.NewTokenMetaCache()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxPositions == 0 {
		cfg.MaxPositions = defaultMaxPositions
	}
	return &Aggregator{
		cfg:        cfg,
		caller:     caller,
		tokenCache: tokenCache,
		logger:     logger,
	}
}

// SpNFTs returns the configured spNFT contracts.
func (a *Aggregator) SpNFTs() []common.Address {
	return append([]common.Address(nil), a.cfg.SpNFTs...)
}

// Summarize walks every configured source for owner and aggregates the
// positions that belong to pair.
func (a *Aggregator) Summarize(ctx context.Context, owner common.Address, pair model.Pair, block *big.Int) (model.PositionSummary, error) {
	return a.SummarizeWith(ctx, owner, pair, a.cfg.SpNFTs, block)
}

// SummarizeWith is Summarize with an explicit spNFT contract list.
func (a *Aggregator) SummarizeWith(ctx context.Context, owner common.Address, pair model.Pair, spNFTs []common.Address, block *big.Int) (model.PositionSummary, error) {
	if a.caller == nil {
		return model.PositionSummary{}, fmt.Errorf("chain caller is nil")
	}

	var all []model.Position
	if a.cfg.AlgebraPositions != (common.Address{}) {
		positions, err := a.AlgebraPositions(ctx, owner, block)
		if err != nil {
			return model.PositionSummary{}, fmt.Errorf("algebra positions: %w", err)
		}
		all = append(all, positions...)
	}

	for _, spNFT := range UniqueAddresses(spNFTs) {
		positions, err := a.SpNFTPositions(ctx, owner, spNFT, pair, block)
		if err != nil {
			return model.PositionSummary{}, fmt.Errorf("spnft %s: %w", spNFT.Hex(), err)
		}
		all = append(all, positions...)
	}

	res, err := Aggregate(all, pair, a.cfg.Policy)
	if err != nil {
		return model.PositionSummary{}, err
	}
	for _, pos := range res.Skipped {
		a.logger.Debug("position on other pair skipped",
			zap.String("source", string(pos.Source)),
			zap.String("contract", pos.Contract),
			zap.String("token_id", pos.TokenID),
			zap.String("pair", pos.Pair.String()),
		)
	}

	summary := model.PositionSummary{
		Owner:        owner.Hex(),
		Pair:         pair,
		Positions:    res.Matched,
		SpNFTTotal:   res.TotalBySource(model.SourceSpNFT),
		AlgebraTotal: res.TotalBySource(model.SourceAlgebra),
		Total:        res.Total,
		Skipped:      len(res.Skipped),
	}

	a.logger.Info("positions aggregated",
		zap.String("owner", summary.Owner),
		zap.Int("matched", len(summary.Positions)),
		zap.Int("skipped", summary.Skipped),
		zap.Float64("spnft_total", summary.SpNFTTotal),
		zap.Float64("algebra_total", summary.AlgebraTotal),
		zap.Float64("total", summary.Total),
	)
	return summary, nil
}

// SpNFTPositions returns owner's staking positions on an spNFT contract. The
// contract's LP token must hold pair, otherwise a *PairMismatchError is
// returned regardless of policy.
func (a *Aggregator) SpNFTPositions(ctx context.Context, owner common.Address, spNFTAddress common.Address, pair model.Pair, block *big.Int) ([]model.Position, error) {
	spNFT := dex.NewSpNFT(a.caller, spNFTAddress)

	info, err := spNFT.PoolInfo(ctx, block)
	if err != nil {
		return nil, err
	}
	lpPair, err := dex.FetchPair(ctx, a.caller, info.LPToken, block)
	if err != nil {
		return nil, fmt.Errorf("lp token %s: %w", info.LPToken.Hex(), err)
	}
	if !pair.Matches(lpPair) {
		return nil, &PairMismatchError{
			Source:   model.SourceSpNFT,
			Contract: spNFTAddress.Hex(),
			Expected: pair,
			Actual:   lpPair,
		}
	}
	decimals := dex.CachedTokenMeta(ctx, a.caller, info.LPToken, block, a.tokenCache, a.logger).Decimals

	count, err := spNFT.BalanceOf(ctx, owner, block)
	if err != nil {
		return nil, err
	}

	return a.collect(ctx, count, func(ctx context.Context, index uint64) (model.Position, error) {
		tokenID, err := spNFT.TokenOfOwnerByIndex(ctx, owner, index, block)
		if err != nil {
			return model.Position{}, err
		}
		amount, err := spNFT.StakingAmount(ctx, tokenID, block)
		if err != nil {
			return model.Position{}, fmt.Errorf("token %s: %w", tokenID, err)
		}
		return model.Position{
			Source:    model.SourceSpNFT,
			Contract:  spNFTAddress.Hex(),
			Owner:     owner.Hex(),
			TokenID:   tokenID.String(),
			Pair:      lpPair,
			RawAmount: amount.String(),
			Decimals:  decimals,
			Amount:    units.ToFloat(amount, decimals),
		}, nil
	})
}

// AlgebraPositions returns every concentrated-liquidity position owner holds
// on the configured position manager, whatever its pair.
func (a *Aggregator) AlgebraPositions(ctx context.Context, owner common.Address, block *big.Int) ([]model.Position, error) {
	manager := dex.NewAlgebraPositions(a.caller, a.cfg.AlgebraPositions)

	count, err := manager.BalanceOf(ctx, owner, block)
	if err != nil {
		return nil, err
	}

	return a.collect(ctx, count, func(ctx context.Context, index uint64) (model.Position, error) {
		tokenID, err := manager.TokenOfOwnerByIndex(ctx, owner, index, block)
		if err != nil {
			return model.Position{}, err
		}
		pos, err := manager.Position(ctx, tokenID, block)
		if err != nil {
			return model.Position{}, fmt.Errorf("token %s: %w", tokenID, err)
		}
		return model.Position{
			Source:    model.SourceAlgebra,
			Contract:  manager.Address().Hex(),
			Owner:     owner.Hex(),
			TokenID:   tokenID.String(),
			Pair:      model.Pair{Token0: pos.Token0.Hex(), Token1: pos.Token1.Hex()},
			RawAmount: pos.Liquidity.String(),
			Decimals:  model.DefaultDecimals,
			Amount:    units.ToFloat(pos.Liquidity, model.DefaultDecimals),
		}, nil
	})
}

// collect runs fetch for indexes [0, count) with bounded concurrency and
// returns the results in index order.
func (a *Aggregator) collect(ctx context.Context, count uint64, fetch func(ctx context.Context, index uint64) (model.Position, error)) ([]model.Position, error) {
	if count > a.cfg.MaxPositions {
		return nil, fmt.Errorf("%w: balance %d exceeds limit %d", ErrTooManyPositions, count, a.cfg.MaxPositions)
	}
	out := make([]model.Position, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i := uint64(0); i < count; i++ {
		index := i
		g.Go(func() error {
			pos, err := fetch(gctx, index)
			if err != nil {
				return fmt.Errorf("index %d: %w", index, err)
			}
			out[index] = pos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// UniqueAddresses drops zero and repeated addresses, keeping first-seen order.
func UniqueAddresses(addresses []common.Address) []common.Address {
	seen := make(map[common.Address]struct{}, len(addresses))
	out := make([]common.Address, 0, len(addresses))
	for _, addr := range addresses {
		if addr == (common.Address{}) {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
