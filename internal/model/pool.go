package model

// PoolState is a snapshot of a V3 pool's price, liquidity and tokens.
type PoolState struct {
	Address        string `json:"address"`
	SqrtPriceX96   string `json:"sqrt_price_x96"`
	Liquidity      string `json:"liquidity"`
	Tick           int32  `json:"tick"`
	Fee            uint32 `json:"fee"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
	Token0Decimals uint8  `json:"token0_decimals"`
	Token1Decimals uint8  `json:"token1_decimals"`
}
