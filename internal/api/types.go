package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number decodes a JSON number or a numeric string.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parse number %q: not finite", s)
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

// Nitro is one entry of the /nitros listing.
type Nitro struct {
	Address string `json:"address"`
	TVLUSD  Number `json:"tvlUSD"`
	NFTPool string `json:"nftPool"`
}

// NFTPool is one entry of the /nft-pools listing.
type NFTPool struct {
	Address            string `json:"address"`
	TVLUSD             Number `json:"tvlUSD"`
	TotalDepositAmount Number `json:"totalDepositAmount"`
	LPToken            string `json:"lpToken"`
}

type nitrosResponse struct {
	Data struct {
		Nitros map[string]Nitro `json:"nitros"`
	} `json:"data"`
}

type nftPoolsResponse struct {
	Data struct {
		NFTPools map[string]NFTPool `json:"nftPools"`
	} `json:"data"`
}
