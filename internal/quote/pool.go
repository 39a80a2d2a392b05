package quote

import (
	"context"
	"math/big"

	"swapScope/internal/chain"
	"swapScope/internal/dex"
	"swapScope/internal/model"
	"swapScope/internal/retry"
)

// DirectPoolQuoter quotes a single pool of fixed fee tier through QuoterV2.
type DirectPoolQuoter struct {
	Fee uint32
}

// NewDirectPoolQuoter quotes the 0.05% pool.
func NewDirectPoolQuoter() DirectPoolQuoter {
	return DirectPoolQuoter{Fee: dex.FeeLow}
}

// QuoteDirect implements PoolQuoter. A revert means the pool cannot fill the
// swap and is not retried.
func (p DirectPoolQuoter) QuoteDirect(ctx context.Context, caller chain.Caller, req Request) (*big.Int, error) {
	dep, ok := dex.DeploymentFor(req.ChainID)
	if !ok {
		return nil, &model.UnsupportedChainError{ChainID: req.ChainID}
	}
	out, err := dex.NewQuoter(caller, dep.QuoterV2).QuoteExactInputSingle(ctx, req.TokenIn, req.TokenOut, p.Fee, req.AmountIn)
	if err != nil {
		if chain.IsRevert(err) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	return out, nil
}
