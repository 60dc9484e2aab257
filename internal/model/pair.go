package model

import "strings"

// Pair is the collateral pair identity of a pool or position.
type Pair struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
}

// Matches reports whether other holds the same two tokens, in either order.
// Addresses compare case-insensitively.
func (p Pair) Matches(other Pair) bool {
	a0, a1 := strings.ToLower(p.Token0), strings.ToLower(p.Token1)
	b0, b1 := strings.ToLower(other.Token0), strings.ToLower(other.Token1)
	if a0 == "" || a1 == "" {
		return false
	}
	return (a0 == b0 && a1 == b1) || (a0 == b1 && a1 == b0)
}

func (p Pair) String() string {
	return p.Token0 + "/" + p.Token1
}
