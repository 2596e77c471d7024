package raydium

import (
	"fmt"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// PoolInfo is a snapshot of one pool's live reserves. Reserves are raw
// vault balances with the pending protocol pnl already subtracted.
type PoolInfo struct {
	Status        uint64
	BaseDecimals  int
	QuoteDecimals int
	BaseReserve   *big.Int
	QuoteReserve  *big.Int
}

// SwapQuote is the result of pricing a swap against a reserve snapshot.
// Amounts are raw token units.
type SwapQuote struct {
	AmountIn     *big.Int
	AmountOut    *big.Int
	MinAmountOut *big.Int

	// Fee is the pool fee taken off the input, raw units.
	Fee *big.Int

	// CurrentPrice is the marginal pool price, out-token per in-token.
	CurrentPrice float64

	// ExecutionPrice is the realized price of this trade size.
	ExecutionPrice float64

	// PriceImpact is how far the execution price falls short of the
	// marginal price, in percent.
	PriceImpact float64
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// rawAmount converts a human token amount to raw units at the given
// decimals, truncating any sub-unit remainder.
func rawAmount(amount float64, decimals int) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(amount), new(big.Float).SetInt(pow10(decimals)))
	raw, _ := f.Int(nil)
	return raw
}

func humanAmount(raw *big.Int, decimals int) float64 {
	f := new(big.Float).Quo(new(big.Float).SetInt(raw), new(big.Float).SetInt(pow10(decimals)))
	v, _ := f.Float64()
	return v
}

// ComputeAmountOut prices a constant-product swap that receives
// tokenOut. The input side is whichever pool side tokenOut is not.
func ComputeAmountOut(info *PoolInfo, keys *PoolKeys, tokenOut solana.PublicKey, amountIn float64) (*SwapQuote, error) {
	var (
		reserveIn, reserveOut   *big.Int
		decimalsIn, decimalsOut int
	)
	switch tokenOut {
	case keys.QuoteMint:
		reserveIn, reserveOut = info.BaseReserve, info.QuoteReserve
		decimalsIn, decimalsOut = info.BaseDecimals, info.QuoteDecimals
	case keys.BaseMint:
		reserveIn, reserveOut = info.QuoteReserve, info.BaseReserve
		decimalsIn, decimalsOut = info.QuoteDecimals, info.BaseDecimals
	default:
		return nil, fmt.Errorf("token %s is not part of pool %s", tokenOut, keys.ID)
	}

	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("pool %s has empty reserves", keys.ID)
	}

	amountInRaw := rawAmount(amountIn, decimalsIn)
	if amountInRaw.Sign() <= 0 {
		return nil, fmt.Errorf("swap amount %f is below one raw unit", amountIn)
	}

	// x*y=k with the fee taken from the input side.
	fee := new(big.Int).Div(new(big.Int).Mul(amountInRaw, big.NewInt(feeNumerator)), big.NewInt(feeDenominator))
	amountInAfterFee := new(big.Int).Sub(amountInRaw, fee)

	numerator := new(big.Int).Mul(reserveOut, amountInAfterFee)
	denominator := new(big.Int).Add(reserveIn, amountInAfterFee)
	amountOut := new(big.Int).Div(numerator, denominator)

	minAmountOut := new(big.Int).Div(
		new(big.Int).Mul(amountOut, big.NewInt(SlippageBase)),
		big.NewInt(SlippageBase+SlippagePercent),
	)

	currentPrice := humanAmount(reserveOut, decimalsOut) / humanAmount(reserveIn, decimalsIn)
	executionPrice := 0.0
	if out := humanAmount(amountOut, decimalsOut); out > 0 {
		executionPrice = out / amountIn
	}
	priceImpact := 0.0
	if currentPrice > 0 {
		priceImpact = (currentPrice - executionPrice) / currentPrice * 100
	}

	return &SwapQuote{
		AmountIn:       amountInRaw,
		AmountOut:      amountOut,
		MinAmountOut:   minAmountOut,
		Fee:            fee,
		CurrentPrice:   currentPrice,
		ExecutionPrice: executionPrice,
		PriceImpact:    priceImpact,
	}, nil
}

// PoolPrice returns the pool's spot price as quote tokens per base
// token, in human units.
func PoolPrice(info *PoolInfo) (float64, error) {
	base := humanAmount(info.BaseReserve, info.BaseDecimals)
	if base == 0 {
		return 0, fmt.Errorf("pool has no base reserve")
	}
	return humanAmount(info.QuoteReserve, info.QuoteDecimals) / base, nil
}

// SellAmountMultiplier compensates for quote tokens with fewer than
// nine decimals so the sell amount stays in the units the pool expects.
func SellAmountMultiplier(quoteDecimals int) float64 {
	if quoteDecimals < 9 {
		return math.Pow10(9 - quoteDecimals)
	}
	return 1
}
