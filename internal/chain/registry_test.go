package chain

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"swapScope/internal/model"
)

func TestRegistrySupports(t *testing.T) {
	reg := NewRegistry(map[uint64]string{
		42161: "http://arbitrum.invalid",
		10:    "http://optimism.invalid",
		8453:  "",
	}, func(id uint64) bool { return id == 42161 })

	if !reg.Supports(42161) {
		t.Fatalf("expected 42161 supported")
	}
	if reg.Supports(10) {
		t.Fatalf("chain without deployment must not be supported")
	}
	if reg.Supports(8453) {
		t.Fatalf("chain with empty endpoint must not be supported")
	}
	if reg.Supports(1) {
		t.Fatalf("unconfigured chain must not be supported")
	}
	if got := reg.ChainIDs(); !reflect.DeepEqual(got, []uint64{42161}) {
		t.Fatalf("chain ids mismatch: %v", got)
	}
}

func TestRegistryDialUnsupportedChain(t *testing.T) {
	reg := NewRegistry(map[uint64]string{42161: "http://arbitrum.invalid"}, nil)

	_, err := reg.Dial(context.Background(), 1)
	var unsupported *model.UnsupportedChainError
	if !errors.As(err, &unsupported) || unsupported.ChainID != 1 {
		t.Fatalf("expected unsupported chain error, got %v", err)
	}
}
