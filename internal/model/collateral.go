package model

// CollateralToken holds one pool asset's balances at each tracked location.
type CollateralToken struct {
	Address         string  `json:"address"`
	Symbol          string  `json:"symbol"`
	Decimals        uint8   `json:"decimals"`
	UserBalance     float64 `json:"user_balance"`
	PoolBalance     float64 `json:"pool_balance"`
	NitroBalance    float64 `json:"nitro_balance"`
	PositionBalance float64 `json:"position_balance"`
	UserShare       float64 `json:"user_share"`
}

// AttributableBalance is the amount the pool-share ratio applies to.
func (c CollateralToken) AttributableBalance() float64 {
	return c.PoolBalance + c.NitroBalance + c.PositionBalance
}
