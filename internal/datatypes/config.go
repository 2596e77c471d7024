package datatypes

import "time"

// Config holds the trading parameters for a single bot run. Entry flows
// copy the value at startup; nothing mutates it once a monitor loop is
// running.
type Config struct {
	// TokenAAmount is the SOL amount spent on a buy, in whole SOL.
	TokenAAmount float64

	// MaxLamports is the priority fee budget in micro-lamports.
	MaxLamports uint64

	// Direction fixes which side of the swap is exact ("in" or "out").
	Direction string

	InstantSell   bool
	ShowInterface bool
	CreateAccount bool
	SnipeMode     bool

	// TakeProfit and StopLoss are fractional thresholds relative to the
	// entry price (0.45 means +45%, 0.60 means -60%).
	TakeProfit float64
	StopLoss   float64

	// ThresholdLossBuy is the dip percentage that triggers a buy when
	// monitoring an existing pool.
	ThresholdLossBuy float64

	// ThresholdResetTime bounds the rolling window the dip percentage is
	// measured against.
	ThresholdResetTime time.Duration

	// NoBuy keeps the dip monitor in observation mode.
	NoBuy bool

	// LiquidityFile is where discovered upcoming pools are appended.
	LiquidityFile string
}

// SellConfig holds the parameters used when exiting a position.
type SellConfig struct {
	MaxLamports uint64
	Direction   string
}

// DefaultConfig returns the stock buy-side configuration.
func DefaultConfig() Config {
	return Config{
		TokenAAmount:       0.03,
		MaxLamports:        15_000_000,
		Direction:          "in",
		InstantSell:        true,
		ShowInterface:      true,
		CreateAccount:      false,
		SnipeMode:          false,
		TakeProfit:         0.45,
		StopLoss:           0.60,
		ThresholdLossBuy:   6,
		ThresholdResetTime: 3 * time.Second,
		NoBuy:              true,
		LiquidityFile:      "unchecked_tokens.json",
	}
}

// DefaultSellConfig returns the stock sell-side configuration. The sell
// leg runs with a lower priority fee than the buy leg.
func DefaultSellConfig() SellConfig {
	return SellConfig{
		MaxLamports: 10_000_000,
		Direction:   "in",
	}
}
