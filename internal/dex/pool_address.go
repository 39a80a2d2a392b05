package dex

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// poolInitCodeHash is keccak256 of the UniswapV3Pool creation code.
var poolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")

// SortTokens orders a pair the way the factory does.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// ComputePoolAddress derives the CREATE2 address of the pool for a pair and fee.
// Token order does not matter.
func ComputePoolAddress(factory, tokenA, tokenB common.Address, fee uint32) common.Address {
	token0, token1 := SortTokens(tokenA, tokenB)

	// abi.encode(address, address, uint24): three left-padded 32 byte words.
	encoded := make([]byte, 0, 96)
	encoded = append(encoded, common.LeftPadBytes(token0.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(token1.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes([]byte{byte(fee >> 16), byte(fee >> 8), byte(fee)}, 32)...)

	salt := crypto.Keccak256Hash(encoded)
	return crypto.CreateAddress2(factory, salt, poolInitCodeHash.Bytes())
}
