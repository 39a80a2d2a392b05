// Package adapter exposes quote, pool state and swap building for Uniswap V3.
// Every operation validates its input before touching the network and dials a
// fresh connection for its own use.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/dex"
	"swapScope/internal/model"
	"swapScope/internal/quote"
	"swapScope/internal/retry"
	"swapScope/internal/storage"
)

const (
	DefaultSlippageBps uint32 = 50
	DefaultDeadline           = 20 * time.Minute
)

// Options tune the adapter. A zero Retry, SlippageBps or Deadline falls back
// to DefaultOptions.
type Options struct {
	RoutingDisabled bool
	Retry           retry.Policy
	SlippageBps     uint32
	Deadline        time.Duration
}

func DefaultOptions() Options {
	return Options{
		Retry:       retry.DefaultPolicy(),
		SlippageBps: DefaultSlippageBps,
		Deadline:    DefaultDeadline,
	}
}

// Adapter implements GetQuote, GetPoolState and BuildSwapTx.
type Adapter struct {
	opts     Options
	dialer   chain.Dialer
	resolver *quote.Resolver
	journal  storage.Journal
	logger   *zap.Logger
	now      func() time.Time
}

func New(opts Options, dialer chain.Dialer, journal storage.Journal, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = storage.Discard{}
	}
	defaults := DefaultOptions()
	if opts.Retry.IsZero() {
		opts.Retry = defaults.Retry
	}
	if opts.SlippageBps == 0 {
		opts.SlippageBps = defaults.SlippageBps
	}
	if opts.Deadline <= 0 {
		opts.Deadline = defaults.Deadline
	}

	router := quote.NewOnChainRouter(dex.NewTokenMetaCache(), logger.Named("router"))
	resolver := quote.NewResolver(quote.Config{
		RoutingDisabled: opts.RoutingDisabled,
		Retry:           opts.Retry,
	}, dialer, router, quote.NewDirectPoolQuoter(), logger.Named("resolver"))

	return &Adapter{
		opts:     opts,
		dialer:   dialer,
		resolver: resolver,
		journal:  journal,
		logger:   logger,
		now:      time.Now,
	}
}

// GetQuote prices an exact input swap, preferring a routed quote and falling
// back to the 0.05% pool.
func (a *Adapter) GetQuote(ctx context.Context, req QuoteRequest) (model.Quote, error) {
	in, err := req.parse()
	if err != nil {
		return model.Quote{}, err
	}

	q, err := a.resolver.Resolve(ctx, quote.Request{
		TokenIn:  in.tokenIn,
		TokenOut: in.tokenOut,
		AmountIn: in.amount,
		ChainID:  req.ChainID,
	})
	if err != nil {
		return model.Quote{}, err
	}

	a.record(func() error {
		return a.journal.PutQuote(ctx, model.QuoteRecord{
			ChainID:    req.ChainID,
			TokenIn:    in.tokenIn.Hex(),
			TokenOut:   in.tokenOut.Hex(),
			AmountIn:   in.amount.String(),
			AmountOut:  q.AmountOut.ToBig().String(),
			Route:      q.Route,
			Source:     q.Source,
			ResolvedAt: a.now().UTC().Format(time.RFC3339Nano),
		})
	})
	return q, nil
}

// GetPoolState reads a pool's price, liquidity, fee, tokens and token decimals.
func (a *Adapter) GetPoolState(ctx context.Context, req PoolRequest) (model.PoolState, error) {
	pool, err := req.parse()
	if err != nil {
		return model.PoolState{}, err
	}

	conn, err := a.dial(ctx, req.ChainID)
	if err != nil {
		return model.PoolState{}, err
	}
	defer conn.Close()

	state, err := retry.Do(ctx, a.policy("pool state"), func(ctx context.Context) (model.PoolState, error) {
		state, err := dex.FetchPoolState(ctx, conn, pool)
		return state, permanentOnRevert(err)
	})
	if err != nil {
		return model.PoolState{}, err
	}

	a.record(func() error {
		return a.journal.PutPoolSnapshot(ctx, model.PoolSnapshotRecord{
			ChainID:   req.ChainID,
			PoolState: state,
			ReadAt:    a.now().UTC().Format(time.RFC3339Nano),
		})
	})
	return state, nil
}

// BuildSwapTx returns an unsigned exactInputSingle call through the 0.05% pool
// of the pair, paying out to Recipient.
func (a *Adapter) BuildSwapTx(ctx context.Context, req SwapRequest) (model.UnsignedTx, error) {
	in, err := req.parse()
	if err != nil {
		return model.UnsignedTx{}, err
	}
	dep, ok := dex.DeploymentFor(req.ChainID)
	if !ok || a.dialer == nil || !a.dialer.Supports(req.ChainID) {
		return model.UnsignedTx{}, &model.UnsupportedChainError{ChainID: req.ChainID}
	}

	conn, err := a.dial(ctx, req.ChainID)
	if err != nil {
		return model.UnsignedTx{}, err
	}
	defer conn.Close()

	// Both decimals reads confirm the pair are ERC20 tokens before pricing.
	if err := retry.Run(ctx, a.policy("decimals"), func(ctx context.Context) error {
		_, _, err := dex.FetchDecimalsPair(ctx, conn, in.tokenIn, in.tokenOut)
		return permanentOnRevert(err)
	}); err != nil {
		return model.UnsignedTx{}, err
	}

	poolAddr := dex.ComputePoolAddress(dep.Factory, in.tokenIn, in.tokenOut, dex.FeeLow)
	state, err := retry.Do(ctx, a.policy("pool state"), func(ctx context.Context) (model.PoolState, error) {
		state, err := dex.FetchPoolState(ctx, conn, poolAddr)
		return state, permanentOnRevert(err)
	})
	if err != nil {
		return model.UnsignedTx{}, err
	}

	quoter := dex.NewQuoter(conn, dep.QuoterV2)
	expected, err := retry.Do(ctx, a.policy("pool quote"), func(ctx context.Context) (*big.Int, error) {
		out, err := quoter.QuoteExactInputSingle(ctx, in.tokenIn, in.tokenOut, state.Fee, in.amount)
		return out, permanentOnRevert(err)
	})
	if err != nil {
		return model.UnsignedTx{}, err
	}
	if expected.Sign() <= 0 {
		return model.UnsignedTx{}, &model.NoRouteError{Fallback: fmt.Errorf("pool %s quoted zero output", poolAddr.Hex())}
	}

	slippage := a.opts.SlippageBps
	minOut := dex.MinimumAmountOut(expected, slippage)
	deadline := uint64(a.now().Add(a.opts.Deadline).Unix())

	data, err := dex.EncodeExactInputSingle(dex.ExactInputSingleParams{
		TokenIn:          in.tokenIn,
		TokenOut:         in.tokenOut,
		Fee:              new(big.Int).SetUint64(uint64(state.Fee)),
		Recipient:        in.recipient,
		Deadline:         new(big.Int).SetUint64(deadline),
		AmountIn:         in.amount,
		AmountOutMinimum: minOut,
	})
	if err != nil {
		return model.UnsignedTx{}, err
	}

	a.logger.Debug("built swap tx",
		zap.String("pool", poolAddr.Hex()),
		zap.String("expected_out", expected.String()),
		zap.String("min_out", minOut.String()),
		zap.Uint32("slippage_bps", slippage),
	)

	return model.UnsignedTx{
		ChainID:      req.ChainID,
		To:           dep.SwapRouter.Hex(),
		Data:         hexutil.Encode(data),
		Value:        hexutil.EncodeBig(big.NewInt(0)),
		Pool:         poolAddr.Hex(),
		ExpectedOut:  expected.String(),
		MinAmountOut: minOut.String(),
		Deadline:     deadline,
	}, nil
}

// PoolFor returns the 0.05% pool address of a pair on chainID.
func PoolFor(chainID uint64, tokenA, tokenB string) (string, error) {
	dep, ok := dex.DeploymentFor(chainID)
	if !ok {
		return "", &model.UnsupportedChainError{ChainID: chainID}
	}
	fields := fieldErrors{}
	for field, value := range map[string]string{"TokenA": tokenA, "TokenB": tokenB} {
		if !common.IsHexAddress(value) {
			fields.add(field, fmt.Sprintf("%s must be a 20-byte hex address", field))
		}
	}
	if err := fields.err(); err != nil {
		return "", err
	}
	return dex.ComputePoolAddress(dep.Factory, common.HexToAddress(tokenA), common.HexToAddress(tokenB), dex.FeeLow).Hex(), nil
}

func (a *Adapter) dial(ctx context.Context, chainID uint64) (chain.Conn, error) {
	if a.dialer == nil || !a.dialer.Supports(chainID) {
		return nil, &model.UnsupportedChainError{ChainID: chainID}
	}
	return retry.Do(ctx, a.policy("dial"), func(ctx context.Context) (chain.Conn, error) {
		return a.dialer.Dial(ctx, chainID)
	})
}

func (a *Adapter) policy(op string) retry.Policy {
	p := a.opts.Retry
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		a.logger.Warn("remote call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}
	return p
}

// record writes to the journal. A journal failure is logged, never returned.
func (a *Adapter) record(write func() error) {
	if err := write(); err != nil {
		a.logger.Warn("journal write failed", zap.Error(err))
	}
}

func permanentOnRevert(err error) error {
	if err == nil {
		return nil
	}
	var remote *model.RemoteError
	if errors.As(err, &remote) && chain.IsRevert(remote.Err) {
		return retry.Permanent(err)
	}
	return err
}
