package raydium

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoolKeys() *PoolKeys {
	return &PoolKeys{
		ID:        solana.NewWallet().PublicKey(),
		BaseMint:  solana.NewWallet().PublicKey(),
		QuoteMint: solana.WrappedSol,
	}
}

func TestComputeAmountOutExact(t *testing.T) {
	keys := testPoolKeys()
	// Zero decimals keep the arithmetic checkable by hand: input 400,
	// fee 1, 399 after fee, out = 10399*399/(10000+399) = 399.
	info := &PoolInfo{
		BaseDecimals:  0,
		QuoteDecimals: 0,
		BaseReserve:   big.NewInt(10000),
		QuoteReserve:  big.NewInt(10399),
	}

	quote, err := ComputeAmountOut(info, keys, keys.QuoteMint, 400)
	require.NoError(t, err)

	assert.Equal(t, int64(400), quote.AmountIn.Int64())
	assert.Equal(t, int64(1), quote.Fee.Int64())
	assert.Equal(t, int64(399), quote.AmountOut.Int64())
	// minAmountOut = 399*100/10100, truncated.
	assert.Equal(t, int64(3), quote.MinAmountOut.Int64())
}

func TestComputeAmountOutDirection(t *testing.T) {
	keys := testPoolKeys()
	info := &PoolInfo{
		BaseDecimals:  6,
		QuoteDecimals: 9,
		BaseReserve:   big.NewInt(1_000_000_000_000), // 1,000,000 tokens
		QuoteReserve:  big.NewInt(500_000_000_000),   // 500 SOL
	}

	// Buying the base token spends quote: input decimals must be 9.
	buy, err := ComputeAmountOut(info, keys, keys.BaseMint, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), buy.AmountIn.Int64())
	assert.True(t, buy.AmountOut.Cmp(info.BaseReserve) < 0)

	// Selling the base token spends base: input decimals must be 6.
	sell, err := ComputeAmountOut(info, keys, keys.QuoteMint, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), sell.AmountIn.Int64())
	assert.True(t, sell.AmountOut.Cmp(info.QuoteReserve) < 0)

	// The directions price against opposite reserves, so the marginal
	// prices are reciprocal.
	assert.InDelta(t, 1/buy.CurrentPrice, sell.CurrentPrice, 1e-9)
}

func TestComputeAmountOutFeeReducesOutput(t *testing.T) {
	keys := testPoolKeys()
	info := &PoolInfo{
		BaseDecimals:  0,
		QuoteDecimals: 0,
		BaseReserve:   big.NewInt(1_000_000),
		QuoteReserve:  big.NewInt(1_000_000),
	}

	quote, err := ComputeAmountOut(info, keys, keys.QuoteMint, 10000)
	require.NoError(t, err)

	// Without the fee the constant product gives 1e6*1e4/(1e6+1e4) = 9900.
	noFee := big.NewInt(9900)
	assert.True(t, quote.AmountOut.Cmp(noFee) < 0)
	assert.True(t, quote.AmountOut.Sign() > 0)
	assert.Equal(t, int64(25), quote.Fee.Int64())
	// Slippage against the pool plus the fee both show up as impact.
	assert.Greater(t, quote.PriceImpact, 0.0)
}

func TestComputeAmountOutRejectsForeignToken(t *testing.T) {
	keys := testPoolKeys()
	info := &PoolInfo{
		BaseReserve:  big.NewInt(1000),
		QuoteReserve: big.NewInt(1000),
	}

	_, err := ComputeAmountOut(info, keys, solana.NewWallet().PublicKey(), 1)
	assert.Error(t, err)
}

func TestComputeAmountOutRejectsEmptyPool(t *testing.T) {
	keys := testPoolKeys()
	info := &PoolInfo{
		BaseReserve:  big.NewInt(0),
		QuoteReserve: big.NewInt(1000),
	}

	_, err := ComputeAmountOut(info, keys, keys.QuoteMint, 1)
	assert.Error(t, err)
}

func TestPoolPrice(t *testing.T) {
	info := &PoolInfo{
		BaseDecimals:  6,
		QuoteDecimals: 9,
		BaseReserve:   big.NewInt(2_000_000_000_000), // 2,000,000 tokens
		QuoteReserve:  big.NewInt(500_000_000_000),   // 500 SOL
	}

	price, err := PoolPrice(info)
	require.NoError(t, err)
	assert.InDelta(t, 0.00025, price, 1e-12)

	_, err = PoolPrice(&PoolInfo{
		BaseDecimals: 6,
		BaseReserve:  big.NewInt(0),
		QuoteReserve: big.NewInt(1),
	})
	assert.Error(t, err)
}

func TestSellAmountMultiplier(t *testing.T) {
	assert.Equal(t, float64(1), SellAmountMultiplier(9))
	assert.Equal(t, float64(1000), SellAmountMultiplier(6))
	assert.Equal(t, float64(1), SellAmountMultiplier(12))
}

func TestComputeUnitLimit(t *testing.T) {
	assert.Equal(t, uint32(ComputeUnitsWithAccountCreation), ComputeUnitLimit(FixedSideIn))
	assert.Equal(t, uint32(ComputeUnitsWithoutAccountCreation), ComputeUnitLimit(FixedSideOut))
}
