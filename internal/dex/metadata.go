package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swapScope/internal/chain"
	"swapScope/internal/model"
)

// TokenMetaCache caches token metadata by address. Token metadata is
// immutable so entries never expire.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// TokenMeta returns cached metadata, fetching it on a miss. A nil cache always fetches.
func (c *TokenMetaCache) TokenMeta(ctx context.Context, caller chain.Caller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	if c != nil {
		if meta, ok := c.Get(token); ok {
			return meta, nil
		}
	}
	meta, err := FetchTokenMeta(ctx, caller, token, logger)
	if err != nil {
		return meta, err
	}
	if c != nil {
		c.Set(token, meta)
	}
	return meta, nil
}

func callMethod(ctx context.Context, caller chain.Caller, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, &model.RemoteError{Op: "call " + method, Err: err}
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, &model.RemoteError{Op: "unpack " + method, Err: err}
	}
	if len(values) == 0 {
		return nil, &model.RemoteError{Op: "unpack " + method, Err: fmt.Errorf("empty result")}
	}
	return values, nil
}

// FetchDecimals reads ERC20 decimals.
func FetchDecimals(ctx context.Context, caller chain.Caller, token common.Address) (uint8, error) {
	erc20ABI, err := erc20ABIString.get()
	if err != nil {
		return 0, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := callMethod(ctx, caller, token, erc20ABI, "decimals")
	if err != nil {
		return 0, fmt.Errorf("token %s: %w", token.Hex(), err)
	}
	return asUint8(values[0])
}

// FetchDecimalsPair reads both tokens' decimals concurrently. Either failure fails the pair.
func FetchDecimalsPair(ctx context.Context, caller chain.Caller, tokenA, tokenB common.Address) (uint8, uint8, error) {
	var decA, decB uint8
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		decA, err = FetchDecimals(gctx, caller, tokenA)
		return err
	})
	g.Go(func() error {
		var err error
		decB, err = FetchDecimals(gctx, caller, tokenB)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return decA, decB, nil
}

// FetchPoolState reads slot0, liquidity, fee and tokens concurrently, then both
// tokens' decimals.
func FetchPoolState(ctx context.Context, caller chain.Caller, pool common.Address) (model.PoolState, error) {
	poolABI, err := v3PoolABI.get()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var (
		slot0     []interface{}
		liquidity []interface{}
		fee       []interface{}
		token0    []interface{}
		token1    []interface{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for method, dst := range map[string]*[]interface{}{
		"slot0":     &slot0,
		"liquidity": &liquidity,
		"fee":       &fee,
		"token0":    &token0,
		"token1":    &token1,
	} {
		method, dst := method, dst
		g.Go(func() error {
			values, err := callMethod(gctx, caller, pool, poolABI, method)
			if err != nil {
				return err
			}
			*dst = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.PoolState{}, fmt.Errorf("pool %s: %w", pool.Hex(), err)
	}

	if len(slot0) < 2 {
		return model.PoolState{}, &model.RemoteError{Op: "unpack slot0", Err: fmt.Errorf("got %d values", len(slot0))}
	}
	sqrtPrice, err := asBigInt(slot0[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickInt, err := asBigInt(slot0[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}
	liq, err := asBigInt(liquidity[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("liquidity: %w", err)
	}
	feeInt, err := asBigInt(fee[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("fee: %w", err)
	}
	addr0, err := asAddress(token0[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("token0: %w", err)
	}
	addr1, err := asAddress(token1[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("token1: %w", err)
	}

	dec0, dec1, err := FetchDecimalsPair(ctx, caller, addr0, addr1)
	if err != nil {
		return model.PoolState{}, err
	}

	return model.PoolState{
		Address:        pool.Hex(),
		SqrtPriceX96:   sqrtPrice.String(),
		Liquidity:      liq.String(),
		Tick:           tick,
		Fee:            uint32(feeInt.Uint64()),
		Token0:         addr0.Hex(),
		Token1:         addr1.Hex(),
		Token0Decimals: dec0,
		Token1Decimals: dec1,
	}, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Only decimals are
// required; symbol and name fall back to bytes32 and are otherwise left empty.
func FetchTokenMeta(ctx context.Context, caller chain.Caller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20ABIString.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	decimals, err := FetchDecimals(ctx, caller, token)
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := callMethod(ctx, caller, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := callMethod(ctx, caller, token, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := callMethod(ctx, caller, token, stringABI, "name"); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := callMethod(ctx, caller, token, bytes32ABI, "name"); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
