package quote

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/chain/chaintest"
	"swapScope/internal/dex"
	"swapScope/internal/model"
	"swapScope/internal/retry"
)

func arbitrum(t *testing.T) dex.Deployment {
	t.Helper()
	dep, ok := dex.DeploymentFor(dex.ArbitrumOne)
	if !ok {
		t.Fatalf("missing arbitrum deployment")
	}
	return dep
}

func stubSymbol(t *testing.T, caller *chaintest.Caller, token common.Address, symbol string) {
	t.Helper()
	erc20, err := dex.ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	caller.Return(token, erc20, "decimals", uint8(18))
	caller.Return(token, erc20, "symbol", symbol)
	caller.Return(token, erc20, "name", symbol)
}

func TestCandidatePathsSkipEndpointsAsHubs(t *testing.T) {
	dep := arbitrum(t)
	paths := candidatePaths(weth, usdc, dep.Hubs)

	// 4 direct tiers plus 2 remaining hubs with 2x2 tier combinations.
	if len(paths) != 4+2*4 {
		t.Fatalf("candidate count %d", len(paths))
	}
	for _, p := range paths {
		if len(p.tokens) == 3 && (p.tokens[1] == weth || p.tokens[1] == usdc) {
			t.Fatalf("endpoint used as hub: %v", p.tokens)
		}
	}
}

func TestOnChainRouterPicksBestPath(t *testing.T) {
	dep := arbitrum(t)
	quoterABI, err := dex.QuoterV2ABI()
	if err != nil {
		t.Fatalf("quoter abi: %v", err)
	}

	hub := dep.Hubs[1]
	caller := chaintest.NewCaller()
	caller.Handle(dep.QuoterV2, quoterABI, "quoteExactInput", func(args []interface{}) ([]interface{}, error) {
		path := args[0].([]byte)
		out := big.NewInt(1_000)
		// The two-hop path through the hub at 500/500 pays the most.
		if len(path) == 66 && common.BytesToAddress(path[23:43]) == hub && path[22] == 0xf4 && path[45] == 0xf4 {
			out = big.NewInt(2_000)
		}
		return []interface{}{out, []*big.Int{}, []uint32{}, big.NewInt(100_000)}, nil
	})
	stubSymbol(t, caller, weth, "WETH")
	stubSymbol(t, caller, hub, "USDC")
	stubSymbol(t, caller, usdc, "USDC.e")

	router := NewOnChainRouter(dex.NewTokenMetaCache(), nil)
	res, err := router.Route(context.Background(), caller, testRequest())
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.AmountOut.Int64() != 2_000 {
		t.Fatalf("amount mismatch: %s", res.AmountOut)
	}
	want := []string{"WETH", "USDC", "USDC.e"}
	if len(res.Path) != len(want) {
		t.Fatalf("path mismatch: %v", res.Path)
	}
	for i := range want {
		if res.Path[i] != want[i] {
			t.Fatalf("path mismatch: %v", res.Path)
		}
	}
}

func TestOnChainRouterAllRevertIsPermanent(t *testing.T) {
	dep := arbitrum(t)
	quoterABI, _ := dex.QuoterV2ABI()
	caller := chaintest.NewCaller()
	caller.Fail(dep.QuoterV2, quoterABI, "quoteExactInput", chaintest.ErrReverted)

	_, err := NewOnChainRouter(nil, nil).Route(context.Background(), caller, testRequest())
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if !retry.IsPermanent(err) {
		t.Fatalf("all-revert result should not be retried")
	}
}

func TestOnChainRouterTransportFailureIsRetryable(t *testing.T) {
	dep := arbitrum(t)
	quoterABI, _ := dex.QuoterV2ABI()
	caller := chaintest.NewCaller()
	caller.Fail(dep.QuoterV2, quoterABI, "quoteExactInput", errors.New("connection reset by peer"))

	_, err := NewOnChainRouter(nil, nil).Route(context.Background(), caller, testRequest())
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if retry.IsPermanent(err) {
		t.Fatalf("transport failure must stay retryable")
	}
}

func TestResolveEndToEndFallbackWhenRoutingFails(t *testing.T) {
	dep := arbitrum(t)
	quoterABI, _ := dex.QuoterV2ABI()

	caller := chaintest.NewCaller()
	caller.Fail(dep.QuoterV2, quoterABI, "quoteExactInput", chaintest.ErrReverted)
	caller.Handle(dep.QuoterV2, quoterABI, "quoteExactInputSingle", func([]interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(1_812_345_678), big.NewInt(1), uint32(1), big.NewInt(90_000)}, nil
	})
	dialer := chaintest.NewDialer(caller, dex.ArbitrumOne)

	resolver := NewResolver(Config{Retry: fastPolicy(3)}, dialer, NewOnChainRouter(dex.NewTokenMetaCache(), nil), NewDirectPoolQuoter(), nil)
	q, err := resolver.Resolve(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if q.Source != model.SourceFallbackPool || len(q.Route) != 1 || q.Route[0] != model.DirectRoute {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if q.AmountOut.Sign() <= 0 {
		t.Fatalf("amount must be positive")
	}
	if n := caller.CallCount("quoteExactInputSingle"); n != 1 {
		t.Fatalf("expected one direct quote, got %d", n)
	}
}

func TestDirectPoolQuoterRevertIsPermanent(t *testing.T) {
	dep := arbitrum(t)
	quoterABI, _ := dex.QuoterV2ABI()
	caller := chaintest.NewCaller()
	caller.Fail(dep.QuoterV2, quoterABI, "quoteExactInputSingle", chaintest.ErrReverted)

	_, err := NewDirectPoolQuoter().QuoteDirect(context.Background(), caller, testRequest())
	if !retry.IsPermanent(err) {
		t.Fatalf("revert should be permanent, got %v", err)
	}
}
