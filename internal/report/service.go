// Package report builds a ValuationReport for one user, pool and Nitro pool.
package report

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nitroScope/internal/api"
	"nitroScope/internal/chain"
	"nitroScope/internal/collateral"
	"nitroScope/internal/dex"
	"nitroScope/internal/model"
	"nitroScope/internal/position"
	"nitroScope/internal/units"
	"nitroScope/internal/valuation"
)

// ErrInvalidRequest reports a request missing a required address.
var ErrInvalidRequest = errors.New("invalid request")

const noDepositsNote = "nitro pool has no deposits"

// BlockSource pins a build to one block.
type BlockSource interface {
	Pin(ctx context.Context, requested uint64) (chain.BlockRef, error)
}

// ProgramLister supplies Nitro and spNFT pool listings with their TVL.
type ProgramLister interface {
	Nitros(ctx context.Context) (map[string]api.Nitro, error)
	NFTPools(ctx context.Context) (map[string]api.NFTPool, error)
}

// Request names the addresses to value. Block 0 means the latest block.
type Request struct {
	Pool      common.Address
	NitroPool common.Address
	User      common.Address
	Block     uint64
}

func (r Request) validate() error {
	switch {
	case r.Pool == (common.Address{}):
		return fmt.Errorf("%w: pool address is required", ErrInvalidRequest)
	case r.NitroPool == (common.Address{}):
		return fmt.Errorf("%w: nitro pool address is required", ErrInvalidRequest)
	case r.User == (common.Address{}):
		return fmt.Errorf("%w: user address is required", ErrInvalidRequest)
	}
	return nil
}

// Service merges positions, valuations and collateral into one report.
type Service struct {
	caller     chain.Caller
	blocks     BlockSource
	programs   ProgramLister
	positions  *position.Aggregator
	collateral *collateral.Reporter
	tokenCache *dex.TokenMetaCache
	logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires the components. blocks may be nil, in which case reads
// use the latest state and the report carries no block number.
func NewService(cfg position.Config, caller chain.Caller, blocks BlockSource, programs ProgramLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	tokenCache := dex.NewTokenMetaCache()
	return &Service{
		caller:     caller,
		blocks:     blocks,
		programs:   programs,
		positions:  position.NewAggregator(cfg, caller, tokenCache, logger),
		collateral: collateral.NewReporter(caller, tokenCache, logger),
		tokenCache: tokenCache,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

type programData struct {
	nitros       map[string]api.Nitro
	nftPools     map[string]api.NFTPool
	userDeposit  *big.Int
	totalDeposit *big.Int
	nftPool      common.Address
}

// Build runs one valuation.
func (s *Service) Build(ctx context.Context, req Request) (model.ValuationReport, error) {
	if err := req.validate(); err != nil {
		return model.ValuationReport{}, err
	}
	if s.caller == nil || s.programs == nil {
		return model.ValuationReport{}, fmt.Errorf("report service is not configured")
	}

	rep := model.ValuationReport{
		Pool:      req.Pool.Hex(),
		NitroPool: req.NitroPool.Hex(),
		User:      req.User.Hex(),
	}

	block, err := s.pinBlock(ctx, req.Block, &rep)
	if err != nil {
		return model.ValuationReport{}, err
	}

	pair, err := dex.FetchPair(ctx, s.caller, req.Pool, block)
	if err != nil {
		return model.ValuationReport{}, fmt.Errorf("pool %s: %w", req.Pool.Hex(), err)
	}
	rep.Pair = pair

	data, err := s.loadPrograms(ctx, req, block)
	if err != nil {
		return model.ValuationReport{}, err
	}

	nitroEntry, err := api.LookupNitro(data.nitros, req.NitroPool.Hex())
	if err != nil {
		return model.ValuationReport{}, err
	}

	sources := spNFTSources(s.positions.SpNFTs(), data.nftPool, nitroEntry.NFTPool)
	for _, src := range sources {
		rep.SpNFTSources = append(rep.SpNFTSources, src.Hex())
	}

	summary, err := s.positions.SummarizeWith(ctx, req.User, pair, sources, block)
	if err != nil {
		return model.ValuationReport{}, fmt.Errorf("positions: %w", err)
	}
	rep.Positions = summary

	nitro, err := valuateNitro(req.NitroPool, data.userDeposit, data.totalDeposit, nitroEntry.TVLUSD.Float64())
	if err != nil {
		return model.ValuationReport{}, fmt.Errorf("nitro %s: %w", req.NitroPool.Hex(), err)
	}
	rep.Nitro = nitro
	rep.TotalDollarValue = nitro.UserDollarValue

	if data.nftPool != (common.Address{}) {
		if spValue := s.valuateSpNFTPool(ctx, data.nftPool, data.nftPools, summary, block); spValue != nil {
			rep.SpNFTPool = spValue
			rep.TotalDollarValue += spValue.UserDollarValue
		}
	}

	tokens := []common.Address{common.HexToAddress(pair.Token0), common.HexToAddress(pair.Token1)}
	loc := collateral.Locations{
		User:      req.User,
		Pool:      req.Pool,
		Nitro:     req.NitroPool,
		Positions: sources,
	}
	rep.Collateral, err = s.collateral.Report(ctx, tokens, loc, nitro.Share.Ratio, block)
	if err != nil {
		return model.ValuationReport{}, fmt.Errorf("collateral: %w", err)
	}

	rep.ID = s.newID()
	rep.GeneratedAt = s.now().UTC()

	s.logger.Info("valuation report built",
		zap.String("id", rep.ID),
		zap.String("user", rep.User),
		zap.Uint64("block", rep.BlockNumber),
		zap.Float64("positions_total", summary.Total),
		zap.String("nitro_share", units.FormatPercent(nitro.Share.Ratio)),
		zap.String("total_value", units.FormatUSD(rep.TotalDollarValue)),
	)
	return rep, nil
}

func (s *Service) pinBlock(ctx context.Context, requested uint64, rep *model.ValuationReport) (*big.Int, error) {
	if s.blocks == nil {
		if requested == 0 {
			return nil, nil
		}
		rep.BlockNumber = requested
		return new(big.Int).SetUint64(requested), nil
	}

	ref, err := s.blocks.Pin(ctx, requested)
	if err != nil {
		return nil, err
	}
	rep.ChainID = ref.ChainID
	rep.BlockNumber = ref.Number
	rep.BlockTimestamp = ref.Timestamp
	return ref.BigNumber(), nil
}

// loadPrograms fetches the API listings and the Nitro pool state concurrently.
func (s *Service) loadPrograms(ctx context.Context, req Request, block *big.Int) (programData, error) {
	var data programData
	nitroPool := dex.NewNitroPool(s.caller, req.NitroPool)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nitros, err := s.programs.Nitros(gctx)
		if err != nil {
			return fmt.Errorf("fetch nitros: %w", err)
		}
		data.nitros = nitros
		return nil
	})
	g.Go(func() error {
		pools, err := s.programs.NFTPools(gctx)
		if err != nil {
			return fmt.Errorf("fetch nft pools: %w", err)
		}
		data.nftPools = pools
		return nil
	})
	g.Go(func() error {
		amount, err := nitroPool.UserDeposit(gctx, req.User, block)
		if err != nil {
			return fmt.Errorf("nitro user deposit: %w", err)
		}
		data.userDeposit = amount
		return nil
	})
	g.Go(func() error {
		amount, err := nitroPool.TotalDeposit(gctx, block)
		if err != nil {
			return fmt.Errorf("nitro total deposit: %w", err)
		}
		data.totalDeposit = amount
		return nil
	})
	g.Go(func() error {
		addr, err := nitroPool.NFTPool(gctx, block)
		if err != nil {
			return fmt.Errorf("nitro nft pool: %w", err)
		}
		data.nftPool = addr
		return nil
	})
	if err := g.Wait(); err != nil {
		return programData{}, err
	}
	return data, nil
}

// valuateNitro prices the user's Nitro share. A program with no deposits at
// all is worth nothing to a user who has not deposited.
func valuateNitro(address common.Address, userRaw, totalRaw *big.Int, tvl float64) (model.ProgramValuation, error) {
	user := units.ToFloat(userRaw, model.DefaultDecimals)
	total := units.ToFloat(totalRaw, model.DefaultDecimals)
	if err := valuation.CheckTVL(tvl); err != nil {
		return model.ProgramValuation{}, err
	}

	out := model.ProgramValuation{Address: address.Hex(), TVLUSD: tvl}
	share, value, err := valuation.Valuate(user, total, tvl)
	if err != nil {
		if errors.Is(err, valuation.ErrInsufficientData) && total == 0 && user == 0 {
			out.Note = noDepositsNote
			return out, nil
		}
		return model.ProgramValuation{}, err
	}
	out.Share = share
	out.UserDollarValue = value
	return out, nil
}

// valuateSpNFTPool prices the user's unstaked spNFT positions on nftPool.
// The listing's total deposit is used when present, otherwise the contract's
// staked LP supply. The result is informational, so failures are logged and
// yield nil.
func (s *Service) valuateSpNFTPool(ctx context.Context, nftPool common.Address, pools map[string]api.NFTPool, summary model.PositionSummary, block *big.Int) *model.ProgramValuation {
	log := s.logger.With(zap.String("nft_pool", nftPool.Hex()))
	entry, err := api.LookupNFTPool(pools, nftPool.Hex())
	if err != nil {
		log.Warn("spnft pool not listed")
		return nil
	}

	info, err := dex.NewSpNFT(s.caller, nftPool).PoolInfo(ctx, block)
	if err != nil {
		log.Warn("spnft pool info read failed", zap.Error(err))
		return nil
	}
	if entry.LPToken != "" && !strings.EqualFold(entry.LPToken, info.LPToken.Hex()) {
		log.Warn("spnft pool listing has a different lp token",
			zap.String("listed", entry.LPToken),
			zap.String("on_chain", info.LPToken.Hex()),
		)
		return nil
	}

	var user float64
	for _, pos := range summary.Positions {
		if pos.Source == model.SourceSpNFT && strings.EqualFold(pos.Contract, nftPool.Hex()) {
			user += pos.Amount
		}
	}

	total := entry.TotalDepositAmount.Float64()
	if total == 0 {
		decimals := dex.CachedTokenMeta(ctx, s.caller, info.LPToken, block, s.tokenCache, s.logger).Decimals
		total = units.ToFloat(info.LPSupply, decimals)
	}

	share, value, err := valuation.Valuate(user, total, entry.TVLUSD.Float64())
	if err != nil {
		log.Warn("spnft pool valuation skipped", zap.Error(err))
		return nil
	}
	return &model.ProgramValuation{
		Address:         nftPool.Hex(),
		Share:           share,
		TVLUSD:          entry.TVLUSD.Float64(),
		UserDollarValue: value,
	}
}

// spNFTSources merges configured contracts with the Nitro pool's spNFT
// contract, dropping zero and duplicate addresses.
func spNFTSources(configured []common.Address, onChain common.Address, listed string) []common.Address {
	candidates := append([]common.Address{}, configured...)
	candidates = append(candidates, onChain)
	if common.IsHexAddress(listed) {
		candidates = append(candidates, common.HexToAddress(listed))
	}

	return position.UniqueAddresses(candidates)
}
