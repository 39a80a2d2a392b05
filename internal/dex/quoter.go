package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/chain"
)

// EncodePath packs a V3 multi-hop path: token, fee, token, fee, ..., token.
func EncodePath(tokens []common.Address, fees []uint32) ([]byte, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("path needs at least two tokens")
	}
	if len(fees) != len(tokens)-1 {
		return nil, fmt.Errorf("path has %d tokens but %d fees", len(tokens), len(fees))
	}

	path := make([]byte, 0, len(tokens)*common.AddressLength+len(fees)*3)
	for i, token := range tokens {
		path = append(path, token.Bytes()...)
		if i < len(fees) {
			fee := fees[i]
			if fee >= 1<<24 {
				return nil, fmt.Errorf("fee %d overflows uint24", fee)
			}
			path = append(path, byte(fee>>16), byte(fee>>8), byte(fee))
		}
	}
	return path, nil
}

// Quoter reads swap outputs from the QuoterV2 contract. The contract runs the
// pool's own swap math, so results include fees and tick crossings.
type Quoter struct {
	caller  chain.Caller
	address common.Address
}

func NewQuoter(caller chain.Caller, address common.Address) *Quoter {
	return &Quoter{caller: caller, address: address}
}

// QuoteExactInputSingle returns the output of swapping amountIn through one pool.
func (q *Quoter) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error) {
	quoterABI, err := quoterV2ABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse quoter abi: %w", err)
	}

	params := struct {
		TokenIn           common.Address
		TokenOut          common.Address
		AmountIn          *big.Int
		Fee               *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: big.NewInt(0),
	}

	values, err := callMethod(ctx, q.caller, q.address, quoterABI, "quoteExactInputSingle", params)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// QuoteExactInput returns the output of swapping amountIn along an encoded path.
func (q *Quoter) QuoteExactInput(ctx context.Context, path []byte, amountIn *big.Int) (*big.Int, error) {
	quoterABI, err := quoterV2ABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse quoter abi: %w", err)
	}

	values, err := callMethod(ctx, q.caller, q.address, quoterABI, "quoteExactInput", path, amountIn)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}
