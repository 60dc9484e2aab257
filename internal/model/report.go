package model

import "time"

// ValuationReport is the merged result of one valuation run.
type ValuationReport struct {
	ID             string            `json:"id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	ChainID        uint64            `json:"chain_id"`
	BlockNumber    uint64            `json:"block_number"`
	BlockTimestamp uint64            `json:"block_timestamp"`
	Pool           string            `json:"pool"`
	NitroPool      string            `json:"nitro_pool"`
	User           string            `json:"user"`
	Pair           Pair              `json:"pair"`
	SpNFTSources   []string          `json:"spnft_sources"`
	Positions      PositionSummary   `json:"positions"`
	Nitro          ProgramValuation  `json:"nitro"`
	SpNFTPool      *ProgramValuation `json:"spnft_pool,omitempty"`
	Collateral     []CollateralToken `json:"collateral"`
	// TotalDollarValue sums the Nitro valuation and the spNFT pool valuation.
	TotalDollarValue float64 `json:"total_dollar_value"`
}
