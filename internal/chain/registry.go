package chain

import (
	"context"
	"fmt"
	"sort"

	"swapScope/internal/model"
	"swapScope/internal/retry"
)

// Dialer opens a connection per operation.
type Dialer interface {
	Supports(chainID uint64) bool
	Dial(ctx context.Context, chainID uint64) (Conn, error)
}

// Registry maps chain ids to RPC endpoints. It holds no connections; every
// Dial builds a fresh client.
type Registry struct {
	endpoints map[uint64]string
	allowed   func(chainID uint64) bool
}

// NewRegistry builds a registry from endpoints. When allowed is non-nil, only
// chains it accepts are supported even if an endpoint is configured.
func NewRegistry(endpoints map[uint64]string, allowed func(chainID uint64) bool) *Registry {
	copied := make(map[uint64]string, len(endpoints))
	for id, url := range endpoints {
		if url == "" {
			continue
		}
		copied[id] = url
	}
	return &Registry{endpoints: copied, allowed: allowed}
}

// Supports reports whether chainID can be dialed. It performs no I/O.
func (r *Registry) Supports(chainID uint64) bool {
	if _, ok := r.endpoints[chainID]; !ok {
		return false
	}
	return r.allowed == nil || r.allowed(chainID)
}

// ChainIDs returns the supported chain ids in ascending order.
func (r *Registry) ChainIDs() []uint64 {
	ids := make([]uint64, 0, len(r.endpoints))
	for id := range r.endpoints {
		if r.Supports(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dial connects to the endpoint for chainID and checks the remote chain id.
func (r *Registry) Dial(ctx context.Context, chainID uint64) (Conn, error) {
	if !r.Supports(chainID) {
		return nil, &model.UnsupportedChainError{ChainID: chainID}
	}

	client, err := NewClient(ctx, r.endpoints[chainID])
	if err != nil {
		return nil, &model.RemoteError{Op: "dial rpc", Err: err}
	}

	remote, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return nil, &model.RemoteError{Op: "chain id", Err: err}
	}
	if !remote.IsUint64() || remote.Uint64() != chainID {
		client.Close()
		return nil, retry.Permanent(fmt.Errorf("rpc endpoint serves chain %s, want %d", remote, chainID))
	}

	return client, nil
}
