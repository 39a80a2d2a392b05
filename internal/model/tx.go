package model

// UnsignedTx is a swap transaction ready to be signed by the caller's wallet.
type UnsignedTx struct {
	ChainID      uint64 `json:"chain_id"`
	To           string `json:"to"`
	Data         string `json:"data"`
	Value        string `json:"value"`
	Pool         string `json:"pool"`
	ExpectedOut  string `json:"expected_out"`
	MinAmountOut string `json:"min_amount_out"`
	Deadline     uint64 `json:"deadline"`
}
