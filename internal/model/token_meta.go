package model

// DefaultDecimals is assumed when a token does not report its precision.
const DefaultDecimals uint8 = 18

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
