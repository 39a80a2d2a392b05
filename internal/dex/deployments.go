package dex

import "github.com/ethereum/go-ethereum/common"

const ArbitrumOne uint64 = 42161

// Fee tiers in hundredths of a bip.
const (
	FeeLowest uint32 = 100
	FeeLow    uint32 = 500
	FeeMedium uint32 = 3000
	FeeHigh   uint32 = 10000
)

// FeeTiers lists every enabled V3 fee tier.
var FeeTiers = []uint32{FeeLowest, FeeLow, FeeMedium, FeeHigh}

// Deployment holds the Uniswap V3 contracts of one chain.
type Deployment struct {
	Factory    common.Address
	QuoterV2   common.Address
	SwapRouter common.Address
	// Hubs are the liquid tokens tried as intermediate hops when routing.
	Hubs []common.Address
}

var deployments = map[uint64]Deployment{
	ArbitrumOne: {
		Factory:    common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984"),
		QuoterV2:   common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
		SwapRouter: common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564"),
		Hubs: []common.Address{
			common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"), // WETH
			common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"), // USDC
			common.HexToAddress("0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8"), // USDC.e
			common.HexToAddress("0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9"), // USDT
		},
	},
}

// DeploymentFor returns the contracts for chainID.
func DeploymentFor(chainID uint64) (Deployment, bool) {
	d, ok := deployments[chainID]
	return d, ok
}

// HasDeployment reports whether chainID has known contracts.
func HasDeployment(chainID uint64) bool {
	_, ok := deployments[chainID]
	return ok
}
