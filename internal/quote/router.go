package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swapScope/internal/chain"
	"swapScope/internal/dex"
	"swapScope/internal/model"
	"swapScope/internal/retry"
)

// ErrNoRoute is returned when no candidate path can be quoted.
var ErrNoRoute = errors.New("no route found")

// hopFees are the tiers tried for each leg of a two-hop path.
var hopFees = []uint32{dex.FeeLow, dex.FeeMedium}

const defaultRouteConcurrency = 4

type candidate struct {
	tokens []common.Address
	fees   []uint32
}

func candidatePaths(tokenIn, tokenOut common.Address, hubs []common.Address) []candidate {
	out := make([]candidate, 0, len(dex.FeeTiers)+len(hubs)*len(hopFees)*len(hopFees))
	for _, fee := range dex.FeeTiers {
		out = append(out, candidate{tokens: []common.Address{tokenIn, tokenOut}, fees: []uint32{fee}})
	}
	for _, hub := range hubs {
		if hub == tokenIn || hub == tokenOut {
			continue
		}
		for _, feeIn := range hopFees {
			for _, feeOut := range hopFees {
				out = append(out, candidate{
					tokens: []common.Address{tokenIn, hub, tokenOut},
					fees:   []uint32{feeIn, feeOut},
				})
			}
		}
	}
	return out
}

// OnChainRouter searches direct and hub-routed paths through QuoterV2 and keeps
// the one with the largest output.
type OnChainRouter struct {
	tokens      *dex.TokenMetaCache
	logger      *zap.Logger
	concurrency int
}

func NewOnChainRouter(tokens *dex.TokenMetaCache, logger *zap.Logger) *OnChainRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnChainRouter{tokens: tokens, logger: logger, concurrency: defaultRouteConcurrency}
}

// Route implements Router. Reverting candidates are skipped; when every
// candidate reverts the result is a permanent ErrNoRoute.
func (r *OnChainRouter) Route(ctx context.Context, caller chain.Caller, req Request) (RouteResult, error) {
	dep, ok := dex.DeploymentFor(req.ChainID)
	if !ok {
		return RouteResult{}, &model.UnsupportedChainError{ChainID: req.ChainID}
	}

	quoter := dex.NewQuoter(caller, dep.QuoterV2)
	candidates := candidatePaths(req.TokenIn, req.TokenOut, dep.Hubs)
	outputs := make([]*big.Int, len(candidates))
	failures := make([]error, len(candidates))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			path, err := dex.EncodePath(c.tokens, c.fees)
			if err != nil {
				failures[i] = err
				return nil
			}
			out, err := quoter.QuoteExactInput(ctx, path, req.AmountIn)
			if err != nil {
				failures[i] = err
				return nil
			}
			outputs[i] = out
			return nil
		})
	}
	_ = g.Wait()

	best := -1
	for i, out := range outputs {
		if out == nil || out.Sign() <= 0 {
			continue
		}
		if best < 0 || out.Cmp(outputs[best]) > 0 {
			best = i
		}
	}
	if best < 0 {
		return RouteResult{}, noRouteError(failures)
	}

	winner := candidates[best]
	r.logger.Debug("route selected",
		zap.Int("candidates", len(candidates)),
		zap.Int("hops", len(winner.fees)),
		zap.String("amount_out", outputs[best].String()),
	)

	return RouteResult{
		AmountOut: outputs[best],
		Path:      r.labels(ctx, caller, winner.tokens),
	}, nil
}

func (r *OnChainRouter) labels(ctx context.Context, caller chain.Caller, tokens []common.Address) []string {
	labels := make([]string, 0, len(tokens))
	for _, token := range tokens {
		meta, err := r.tokens.TokenMeta(ctx, caller, token, r.logger)
		if err != nil {
			r.logger.Debug("token symbol unavailable", zap.String("token", token.Hex()), zap.Error(err))
			labels = append(labels, token.Hex())
			continue
		}
		labels = append(labels, meta.Label())
	}
	return labels
}

// noRouteError reports a transient failure when any candidate failed for a
// reason other than a revert, so the caller's retry can try again.
func noRouteError(failures []error) error {
	for _, err := range failures {
		if err != nil && !chain.IsRevert(err) {
			return fmt.Errorf("%w: %v", ErrNoRoute, err)
		}
	}
	return retry.Permanent(ErrNoRoute)
}
