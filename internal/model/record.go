package model

// QuoteRecord is the journal form of a resolved quote.
type QuoteRecord struct {
	ChainID    uint64   `json:"chain_id"`
	TokenIn    string   `json:"token_in"`
	TokenOut   string   `json:"token_out"`
	AmountIn   string   `json:"amount_in"`
	AmountOut  string   `json:"amount_out"`
	Route      []string `json:"route"`
	Source     Source   `json:"source"`
	ResolvedAt string   `json:"resolved_at"`
}

// PoolSnapshotRecord is the journal form of a pool state read.
type PoolSnapshotRecord struct {
	ChainID uint64 `json:"chain_id"`
	PoolState
	ReadAt string `json:"read_at"`
}
