package raydium

import "github.com/gagliardetto/solana-go"

// Raydium AMM v4 program addresses on mainnet.
var (
	AmmProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	AmmAuthority = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")

	// OpenBookProgramID is the central limit order book the AMM v4 pools
	// are bound to.
	OpenBookProgramID = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
)

// Swap fee taken by the pool, 0.25%.
const (
	feeNumerator   = 25
	feeDenominator = 10000
)

// Slippage applied to quotes. The percent is deliberately huge: the bot
// trusts its own just-fetched reserves and must not be priced out of a
// fill on a fast-moving pool.
const (
	SlippagePercent = 10000
	SlippageBase    = 100
)

// Compute unit limits for the swap transaction, keyed off the swap
// direction mode. The "in" path carries the account-creation budget.
const (
	ComputeUnitsWithAccountCreation    = 47000
	ComputeUnitsWithoutAccountCreation = 75000
)

// FixedSide selects which leg of the swap is exact.
type FixedSide string

const (
	FixedSideIn  FixedSide = "in"
	FixedSideOut FixedSide = "out"
)

// ComputeUnitLimit maps the fixed side mode to its compute budget.
func ComputeUnitLimit(side FixedSide) uint32 {
	if side == FixedSideIn {
		return ComputeUnitsWithAccountCreation
	}
	return ComputeUnitsWithoutAccountCreation
}
