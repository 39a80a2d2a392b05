package adapter

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"swapScope/internal/model"
)

var validate = validator.New()

// QuoteRequest asks for the output of swapping Amount of TokenIn into TokenOut.
// Amount is in the token's base units.
type QuoteRequest struct {
	TokenIn  string `json:"token_in" validate:"required,eth_addr"`
	TokenOut string `json:"token_out" validate:"required,eth_addr"`
	Amount   string `json:"amount" validate:"required"`
	ChainID  uint64 `json:"chain_id" validate:"required"`
}

// PoolRequest names a pool to read.
type PoolRequest struct {
	Pool    string `json:"pool" validate:"required,eth_addr"`
	ChainID uint64 `json:"chain_id" validate:"required"`
}

// SwapRequest describes an exact input swap to build. Recipient has no default.
type SwapRequest struct {
	TokenIn   string `json:"token_in" validate:"required,eth_addr"`
	TokenOut  string `json:"token_out" validate:"required,eth_addr"`
	AmountIn  string `json:"amount_in" validate:"required"`
	Recipient string `json:"recipient" validate:"required,eth_addr"`
	ChainID   uint64 `json:"chain_id" validate:"required"`
}

// fieldErrors collects per-field messages before they become a ValidationError.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &model.ValidationError{Fields: f}
}

func checkStruct(s interface{}) (fieldErrors, error) {
	fields := fieldErrors{}
	err := validate.Struct(s)
	if err == nil {
		return fields, nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil, err
	}
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			fields.add(field, fmt.Sprintf("%s is required", field))
		case "eth_addr":
			fields.add(field, fmt.Sprintf("%s must be a 0x-prefixed 20-byte hex address", field))
		default:
			fields.add(field, fmt.Sprintf("%s validation failed on '%s' tag", field, fe.Tag()))
		}
	}
	return fields, nil
}

// address returns the parsed value of a field that already passed eth_addr.
func address(fields fieldErrors, field, value string) common.Address {
	if _, bad := fields[field]; bad {
		return common.Address{}
	}
	return common.HexToAddress(value)
}

func positiveInteger(fields fieldErrors, field, value string) *big.Int {
	if _, bad := fields[field]; bad {
		return nil
	}
	n, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		fields.add(field, fmt.Sprintf("%s must be a base-10 integer", field))
		return nil
	}
	if n.Sign() <= 0 {
		fields.add(field, fmt.Sprintf("%s must be greater than zero", field))
		return nil
	}
	return n
}

func distinctTokens(fields fieldErrors, tokenIn, tokenOut common.Address) {
	if _, bad := fields["TokenIn"]; bad {
		return
	}
	if _, bad := fields["TokenOut"]; bad {
		return
	}
	if tokenIn == tokenOut {
		fields.add("TokenOut", "TokenOut must differ from TokenIn")
	}
}

type quoteInput struct {
	tokenIn, tokenOut common.Address
	amount            *big.Int
}

func (r QuoteRequest) parse() (quoteInput, error) {
	fields, err := checkStruct(r)
	if err != nil {
		return quoteInput{}, err
	}
	in := quoteInput{
		tokenIn:  address(fields, "TokenIn", r.TokenIn),
		tokenOut: address(fields, "TokenOut", r.TokenOut),
		amount:   positiveInteger(fields, "Amount", r.Amount),
	}
	distinctTokens(fields, in.tokenIn, in.tokenOut)
	return in, fields.err()
}

func (r PoolRequest) parse() (common.Address, error) {
	fields, err := checkStruct(r)
	if err != nil {
		return common.Address{}, err
	}
	pool := address(fields, "Pool", r.Pool)
	return pool, fields.err()
}

type swapInput struct {
	quoteInput
	recipient common.Address
}

func (r SwapRequest) parse() (swapInput, error) {
	fields, err := checkStruct(r)
	if err != nil {
		return swapInput{}, err
	}
	in := swapInput{
		quoteInput: quoteInput{
			tokenIn:  address(fields, "TokenIn", r.TokenIn),
			tokenOut: address(fields, "TokenOut", r.TokenOut),
			amount:   positiveInteger(fields, "AmountIn", r.AmountIn),
		},
		recipient: address(fields, "Recipient", r.Recipient),
	}
	if _, bad := fields["Recipient"]; !bad && in.recipient == (common.Address{}) {
		fields.add("Recipient", "Recipient must not be the zero address")
	}
	distinctTokens(fields, in.tokenIn, in.tokenOut)
	return in, fields.err()
}
