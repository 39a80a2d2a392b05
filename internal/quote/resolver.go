package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/model"
	"swapScope/internal/retry"
)

var (
	errRoutingDisabled = errors.New("routing disabled by configuration")
	errZeroOutput      = errors.New("quote returned zero output")
)

// Request describes an exact input swap to price.
type Request struct {
	TokenIn  common.Address
	TokenOut common.Address
	AmountIn *big.Int
	ChainID  uint64
}

// RouteResult is a routing quote with the symbols of the tokens it passes through.
type RouteResult struct {
	AmountOut *big.Int
	Path      []string
}

// Router finds the best multi-route quote.
type Router interface {
	Route(ctx context.Context, caller chain.Caller, req Request) (RouteResult, error)
}

// PoolQuoter quotes the canonical pool of a pair directly.
type PoolQuoter interface {
	QuoteDirect(ctx context.Context, caller chain.Caller, req Request) (*big.Int, error)
}

// Config controls path selection. RoutingDisabled forces the direct pool path.
type Config struct {
	RoutingDisabled bool
	Retry           retry.Policy
}

// Resolver picks a quote source: routing first, the direct pool second.
type Resolver struct {
	cfg    Config
	dialer chain.Dialer
	router Router
	pool   PoolQuoter
	logger *zap.Logger
}

func NewResolver(cfg Config, dialer chain.Dialer, router Router, pool PoolQuoter, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cfg:    cfg,
		dialer: dialer,
		router: router,
		pool:   pool,
		logger: logger,
	}
}

// routingOutcome is the result of the routing state: either a quote or the
// reason the resolver has to fall back.
type routingOutcome struct {
	quote model.Quote
	err   error
}

func (o routingOutcome) succeeded() bool { return o.err == nil }

// Resolve returns a quote with a positive output or an error. Routing and the
// fallback never overlap; the fallback starts only once routing has failed.
func (r *Resolver) Resolve(ctx context.Context, req Request) (model.Quote, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return model.Quote{}, &model.ValidationError{Fields: map[string]string{"AmountIn": "AmountIn must be greater than zero"}}
	}
	if r.dialer == nil || !r.dialer.Supports(req.ChainID) {
		return model.Quote{}, &model.UnsupportedChainError{ChainID: req.ChainID}
	}

	conn, err := retry.Do(ctx, r.policy("dial"), func(ctx context.Context) (chain.Conn, error) {
		return r.dialer.Dial(ctx, req.ChainID)
	})
	if err != nil {
		return model.Quote{}, err
	}
	defer conn.Close()

	outcome := r.route(ctx, conn, req)
	if outcome.succeeded() {
		return outcome.quote, nil
	}
	if ctx.Err() != nil {
		return model.Quote{}, ctx.Err()
	}

	r.logger.Info("falling back to direct pool quote",
		zap.String("token_in", req.TokenIn.Hex()),
		zap.String("token_out", req.TokenOut.Hex()),
		zap.String("reason", outcome.err.Error()),
	)

	q, err := r.fallback(ctx, conn, req)
	if err != nil {
		return model.Quote{}, &model.NoRouteError{Routing: outcome.err, Fallback: err}
	}
	return q, nil
}

func (r *Resolver) route(ctx context.Context, conn chain.Caller, req Request) routingOutcome {
	if r.cfg.RoutingDisabled {
		return routingOutcome{err: errRoutingDisabled}
	}
	if r.router == nil {
		return routingOutcome{err: errors.New("no router configured")}
	}

	res, err := retry.Do(ctx, r.policy("route"), func(ctx context.Context) (RouteResult, error) {
		return r.router.Route(ctx, conn, req)
	})
	if err != nil {
		return routingOutcome{err: err}
	}
	amount, err := positiveAmount(res.AmountOut)
	if err != nil {
		return routingOutcome{err: fmt.Errorf("router: %w", err)}
	}

	r.logger.Debug("routed quote",
		zap.Strings("route", res.Path),
		zap.String("amount_out", res.AmountOut.String()),
	)
	return routingOutcome{quote: model.Quote{
		AmountOut: amount,
		Route:     res.Path,
		Source:    model.SourceRouter,
	}}
}

func (r *Resolver) fallback(ctx context.Context, conn chain.Caller, req Request) (model.Quote, error) {
	if r.pool == nil {
		return model.Quote{}, errors.New("no pool quoter configured")
	}

	out, err := retry.Do(ctx, r.policy("direct quote"), func(ctx context.Context) (*big.Int, error) {
		return r.pool.QuoteDirect(ctx, conn, req)
	})
	if err != nil {
		return model.Quote{}, err
	}
	amount, err := positiveAmount(out)
	if err != nil {
		return model.Quote{}, err
	}

	return model.Quote{
		AmountOut: amount,
		Route:     []string{model.DirectRoute},
		Source:    model.SourceFallbackPool,
	}, nil
}

func (r *Resolver) policy(op string) retry.Policy {
	p := r.cfg.Retry
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		r.logger.Warn("remote call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}
	return p
}

func positiveAmount(v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() <= 0 {
		return nil, errZeroOutput
	}
	amount, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("amount %s overflows uint256", v)
	}
	return amount, nil
}
