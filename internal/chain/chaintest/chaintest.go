// Package chaintest provides in-memory transports for tests.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/chain"
	"swapScope/internal/model"
)

// ErrReverted is returned for calls without a registered handler.
var ErrReverted = errors.New("execution reverted")

// HandlerFunc receives the decoded call arguments and returns output values to pack.
type HandlerFunc func(args []interface{}) ([]interface{}, error)

type handlerKey struct {
	to       common.Address
	selector [4]byte
}

type handler struct {
	method abi.Method
	fn     HandlerFunc
}

// Caller answers eth_call requests from registered handlers.
type Caller struct {
	mu       sync.Mutex
	handlers map[handlerKey]handler
	calls    []string
}

func NewCaller() *Caller {
	return &Caller{handlers: make(map[handlerKey]handler)}
}

// Handle registers fn for method of parsed at address to.
func (c *Caller) Handle(to common.Address, parsed abi.ABI, method string, fn HandlerFunc) {
	m, ok := parsed.Methods[method]
	if !ok {
		panic(fmt.Sprintf("chaintest: unknown method %s", method))
	}
	var sel [4]byte
	copy(sel[:], m.ID)

	c.mu.Lock()
	c.handlers[handlerKey{to: to, selector: sel}] = handler{method: m, fn: fn}
	c.mu.Unlock()
}

// Return registers static outputs.
func (c *Caller) Return(to common.Address, parsed abi.ABI, method string, outputs ...interface{}) {
	c.Handle(to, parsed, method, func([]interface{}) ([]interface{}, error) {
		return outputs, nil
	})
}

// Fail registers a failing method.
func (c *Caller) Fail(to common.Address, parsed abi.ABI, method string, err error) {
	c.Handle(to, parsed, method, func([]interface{}) ([]interface{}, error) {
		return nil, err
	})
}

// CallContract implements chain.Caller.
func (c *Caller) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("chaintest: malformed call")
	}
	var sel [4]byte
	copy(sel[:], msg.Data[:4])

	c.mu.Lock()
	h, ok := c.handlers[handlerKey{to: *msg.To, selector: sel}]
	name := "unknown"
	if ok {
		name = h.method.Name
	}
	c.calls = append(c.calls, name)
	c.mu.Unlock()

	if !ok {
		return nil, ErrReverted
	}

	args, err := h.method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("chaintest: unpack %s inputs: %w", h.method.Name, err)
	}
	outputs, err := h.fn(args)
	if err != nil {
		return nil, err
	}
	return h.method.Outputs.Pack(outputs...)
}

// Close implements chain.Conn.
func (c *Caller) Close() {}

// Calls returns the method names called so far, in order.
func (c *Caller) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// CallCount returns how many calls named method were made; an empty method counts all.
func (c *Caller) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if method == "" {
		return len(c.calls)
	}
	n := 0
	for _, name := range c.calls {
		if name == method {
			n++
		}
	}
	return n
}

// Dialer hands out a single Caller for the configured chains.
type Dialer struct {
	Conn   chain.Conn
	Chains map[uint64]bool

	mu    sync.Mutex
	dials int
}

func NewDialer(conn chain.Conn, chainIDs ...uint64) *Dialer {
	chains := make(map[uint64]bool, len(chainIDs))
	for _, id := range chainIDs {
		chains[id] = true
	}
	return &Dialer{Conn: conn, Chains: chains}
}

func (d *Dialer) Supports(chainID uint64) bool {
	return d.Chains[chainID]
}

func (d *Dialer) Dial(_ context.Context, chainID uint64) (chain.Conn, error) {
	d.mu.Lock()
	d.dials++
	d.mu.Unlock()
	if !d.Supports(chainID) {
		return nil, &model.UnsupportedChainError{ChainID: chainID}
	}
	return d.Conn, nil
}

// Dials returns how many times Dial was called.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
