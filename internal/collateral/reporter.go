// Package collateral reports where a pool's two collateral tokens are held
// and how much of them is attributable to one user.
package collateral

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nitroScope/internal/chain"
	"nitroScope/internal/dex"
	"nitroScope/internal/model"
	"nitroScope/internal/units"
	"nitroScope/internal/valuation"
)

// Locations are the holders whose balances are reported. Zero addresses are
// reported as empty balances.
type Locations struct {
	User      common.Address
	Pool      common.Address
	Nitro     common.Address
	Positions []common.Address
}

// Reporter reads collateral balances from chain.
type Reporter struct {
	caller     chain.Caller
	tokenCache *dex.TokenMetaCache
	logger     *zap.Logger
}

func NewReporter(caller chain.Caller, tokenCache *dex.TokenMetaCache, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokenCache == nil {
		tokenCache = dex.NewTokenMetaCache()
	}
	return &Reporter{caller: caller, tokenCache: tokenCache, logger: logger}
}

// Report reads balances for every token and apportions them by ratio.
func (r *Reporter) Report(ctx context.Context, tokens []common.Address, loc Locations, ratio float64, block *big.Int) ([]model.CollateralToken, error) {
	balances, err := r.Balances(ctx, tokens, loc, block)
	if err != nil {
		return nil, err
	}
	out, err := valuation.ApportionCollateral(balances, ratio)
	if err != nil {
		return nil, err
	}
	for _, token := range out {
		r.logger.Info("collateral apportioned",
			zap.String("token", token.Address),
			zap.String("symbol", token.Symbol),
			zap.Float64("pool", token.PoolBalance),
			zap.Float64("nitro", token.NitroBalance),
			zap.Float64("positions", token.PositionBalance),
			zap.Float64("user_share", token.UserShare),
		)
	}
	return out, nil
}

// Balances reads each token's metadata and its balance at every location.
// Reads for all tokens run concurrently; results keep the order of tokens.
func (r *Reporter) Balances(ctx context.Context, tokens []common.Address, loc Locations, block *big.Int) ([]model.CollateralToken, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}

	out := make([]model.CollateralToken, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		i, token := i, token
		g.Go(func() error {
			ct, err := r.tokenBalances(gctx, token, loc, block)
			if err != nil {
				return fmt.Errorf("token %s: %w", token.Hex(), err)
			}
			out[i] = ct
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reporter) tokenBalances(ctx context.Context, token common.Address, loc Locations, block *big.Int) (model.CollateralToken, error) {
	meta := dex.CachedTokenMeta(ctx, r.caller, token, block, r.tokenCache, r.logger)

	holders := append([]common.Address{loc.User, loc.Pool, loc.Nitro}, loc.Positions...)
	raw := make([]*big.Int, len(holders))

	g, gctx := errgroup.WithContext(ctx)
	for i, holder := range holders {
		i, holder := i, holder
		if holder == (common.Address{}) {
			raw[i] = new(big.Int)
			continue
		}
		g.Go(func() error {
			bal, err := dex.BalanceOf(gctx, r.caller, token, holder, block)
			if err != nil {
				return fmt.Errorf("balance of %s: %w", holder.Hex(), err)
			}
			raw[i] = bal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.CollateralToken{}, err
	}

	positions := new(big.Int)
	for _, bal := range raw[3:] {
		positions.Add(positions, bal)
	}

	return model.CollateralToken{
		Address:         token.Hex(),
		Symbol:          meta.Symbol,
		Decimals:        meta.Decimals,
		UserBalance:     units.ToFloat(raw[0], meta.Decimals),
		PoolBalance:     units.ToFloat(raw[1], meta.Decimals),
		NitroBalance:    units.ToFloat(raw[2], meta.Decimals),
		PositionBalance: units.ToFloat(positions, meta.Decimals),
	}, nil
}
