package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ExactInputSingleParams mirrors ISwapRouter.ExactInputSingleParams.
type ExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// EncodeExactInputSingle returns SwapRouter calldata for a single-pool exact input swap.
func EncodeExactInputSingle(params ExactInputSingleParams) ([]byte, error) {
	routerABI, err := swapRouterABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	if params.SqrtPriceLimitX96 == nil {
		params.SqrtPriceLimitX96 = big.NewInt(0)
	}
	data, err := routerABI.Pack("exactInputSingle", params)
	if err != nil {
		return nil, fmt.Errorf("pack exactInputSingle: %w", err)
	}
	return data, nil
}

// MinimumAmountOut applies a slippage tolerance in basis points the way the
// SDK does: amountOut / (1 + slippage).
func MinimumAmountOut(amountOut *big.Int, slippageBps uint32) *big.Int {
	num := new(big.Int).Mul(amountOut, big.NewInt(10_000))
	return num.Quo(num, big.NewInt(10_000+int64(slippageBps)))
}
