package dex

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/chain/chaintest"
)

func TestEncodePath(t *testing.T) {
	path, err := EncodePath([]common.Address{testToken0, testToken1, testPool}, []uint32{FeeLow, FeeMedium})
	if err != nil {
		t.Fatalf("encode path: %v", err)
	}
	if len(path) != 20*3+3*2 {
		t.Fatalf("path length %d", len(path))
	}
	if !bytes.Equal(path[20:23], []byte{0x00, 0x01, 0xf4}) {
		t.Fatalf("first fee mismatch: %x", path[20:23])
	}
	if !bytes.Equal(path[43:46], []byte{0x00, 0x0b, 0xb8}) {
		t.Fatalf("second fee mismatch: %x", path[43:46])
	}
	if common.BytesToAddress(path[46:]) != testPool {
		t.Fatalf("last token mismatch")
	}
}

func TestEncodePathInvalid(t *testing.T) {
	if _, err := EncodePath([]common.Address{testToken0}, nil); err == nil {
		t.Fatalf("expected error for single token")
	}
	if _, err := EncodePath([]common.Address{testToken0, testToken1}, []uint32{FeeLow, FeeLow}); err == nil {
		t.Fatalf("expected error for fee count mismatch")
	}
}

type singleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

func TestQuoterSingleAndPath(t *testing.T) {
	quoterAddr := common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	quoterABI, err := QuoterV2ABI()
	if err != nil {
		t.Fatalf("quoter abi: %v", err)
	}

	caller := chaintest.NewCaller()
	caller.Handle(quoterAddr, quoterABI, "quoteExactInputSingle", func(args []interface{}) ([]interface{}, error) {
		params := abi.ConvertType(args[0], new(singleParams)).(*singleParams)
		if params.Fee.Int64() != int64(FeeLow) || params.TokenIn != testToken0 {
			t.Errorf("unexpected params: %+v", params)
		}
		out := new(big.Int).Mul(params.AmountIn, big.NewInt(2))
		return []interface{}{out, big.NewInt(1), uint32(0), big.NewInt(80_000)}, nil
	})
	caller.Handle(quoterAddr, quoterABI, "quoteExactInput", func(args []interface{}) ([]interface{}, error) {
		path := args[0].([]byte)
		if len(path) != 43 {
			t.Errorf("unexpected path length %d", len(path))
		}
		return []interface{}{big.NewInt(777), []*big.Int{big.NewInt(1)}, []uint32{1}, big.NewInt(90_000)}, nil
	})

	q := NewQuoter(caller, quoterAddr)
	out, err := q.QuoteExactInputSingle(context.Background(), testToken0, testToken1, FeeLow, big.NewInt(50))
	if err != nil {
		t.Fatalf("quote single: %v", err)
	}
	if out.Int64() != 100 {
		t.Fatalf("single out %s", out)
	}

	path, _ := EncodePath([]common.Address{testToken0, testToken1}, []uint32{FeeLow})
	out, err = q.QuoteExactInput(context.Background(), path, big.NewInt(50))
	if err != nil {
		t.Fatalf("quote path: %v", err)
	}
	if out.Int64() != 777 {
		t.Fatalf("path out %s", out)
	}
}
