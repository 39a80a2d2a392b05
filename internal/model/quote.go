package model

import (
	"encoding/json"

	"github.com/holiman/uint256"
)

// Source tags which resolution path produced a quote.
type Source string

const (
	SourceRouter       Source = "router"
	SourceFallbackPool Source = "fallback-pool"
)

// DirectRoute marks a quote taken straight from a single pool.
const DirectRoute = "direct"

// Quote is the output estimate for swapping an exact input amount.
type Quote struct {
	AmountOut *uint256.Int `json:"-"`
	Route     []string     `json:"route"`
	Source    Source       `json:"source"`
}

// MarshalJSON encodes AmountOut as a decimal string.
func (q Quote) MarshalJSON() ([]byte, error) {
	type Alias Quote
	amount := "0"
	if q.AmountOut != nil {
		amount = q.AmountOut.ToBig().String()
	}
	return json.Marshal(struct {
		AmountOut string `json:"amount_out"`
		Alias
	}{
		AmountOut: amount,
		Alias:     Alias(q),
	})
}
