package monitor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sniper/internal/utils"
	"sniper/service/raydium"
)

// buy spends the configured SOL amount on the pool token.
func (s *Service) buy(ctx context.Context) error {
	tx, err := s.trader.SwapTransaction(ctx, s.keys, s.token, s.cfg.TokenAAmount, s.cfg.MaxLamports, raydium.FixedSide(s.cfg.Direction))
	if err != nil {
		return err
	}
	sig, err := s.trader.SendTransaction(ctx, tx, broadcastRetries)
	if err != nil {
		return err
	}
	s.log.Info("buy transaction sent",
		zap.Float64("amount", s.cfg.TokenAAmount),
		zap.String("signature", sig.String()),
	)
	return nil
}

// ExecuteSwap is the manual-buy flow: with the interface on it waits
// for the buy key while showing the price drift, buys, then hands the
// position to the exit monitor. Without the interface it buys at once.
func (s *Service) ExecuteSwap(ctx context.Context) error {
	if s.cfg.ShowInterface {
		initial, err := s.trader.Price(ctx, s.keys)
		if err != nil {
			return err
		}

		for !s.manualBuyRequested() {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.consumeKeys()

			price, err := s.trader.Price(ctx, s.keys)
			if err != nil {
				if err := s.sleep(ctx, retryInterval); err != nil {
					return err
				}
				continue
			}

			actualPercent := (price - initial) / initial * 100
			fmt.Fprint(s.out, "\x1b[2J\x1b[H")
			fmt.Fprintln(s.out, `Press "b" to buy`)
			fmt.Fprintln(s.out, `Press "Q" to exit`)
			fmt.Fprintln(s.out)
			fmt.Fprintln(s.out, "Actual percent:", utils.FormatPercentage(actualPercent))

			if err := s.sleep(ctx, priceCheckInterval); err != nil {
				return err
			}
		}
	}

	// Buy failures around a pool open are expected; keep retrying the
	// whole cycle instead of giving up the session.
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.buy(ctx); err != nil {
			s.log.Error("swap failed", zap.Error(err))
			if err := s.sleep(ctx, retryInterval); err != nil {
				return err
			}
			continue
		}
		break
	}

	return s.WatchPriceAndSell(ctx)
}

// MonitorAndTrade is the dip-buy flow: it tracks the price against a
// rolling reference and buys once the dip exceeds the configured loss
// threshold, then hands off to the exit monitor. With NoBuy set it only
// reports the dips it would have bought.
func (s *Service) MonitorAndTrade(ctx context.Context) error {
	initial, err := s.trader.Price(ctx, s.keys)
	if err != nil {
		return err
	}
	lastReset := s.now()
	startTime := s.now()

	var topNegPercent, topPosPercent float64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.consumeKeys()

		price, err := s.trader.Price(ctx, s.keys)
		if err != nil {
			if err := s.sleep(ctx, retryInterval); err != nil {
				return err
			}
			continue
		}

		if initial == 0 {
			initial = price
		}
		// The reference price only slides once the window has fully
		// elapsed.
		if s.now().Sub(lastReset) > s.cfg.ThresholdResetTime {
			initial = price
			lastReset = s.now()
		}

		actualPercent := (price - initial) / initial * 100
		if actualPercent < topNegPercent {
			topNegPercent = actualPercent
		}
		if actualPercent > topPosPercent {
			topPosPercent = actualPercent
		}

		if s.cfg.ShowInterface {
			fmt.Fprint(s.out, "\x1b[2J\x1b[H")
			fmt.Fprintln(s.out, "Start time:", startTime.Format("2006-01-02 15:04:05"))
			fmt.Fprintln(s.out, "Actual percent:", utils.FormatPercentage(actualPercent))
			fmt.Fprintln(s.out, "Top neg percent:", utils.FormatPercentage(topNegPercent))
			fmt.Fprintln(s.out, "Top pos percent:", utils.FormatPercentage(topPosPercent))
		}

		dipReached := actualPercent < 0 && -actualPercent > s.cfg.ThresholdLossBuy
		if dipReached || s.manualBuyRequested() {
			if s.cfg.NoBuy {
				s.log.Info("dip reached, buying disabled",
					zap.Float64("percent", actualPercent),
				)
			} else {
				if err := s.buy(ctx); err != nil {
					s.log.Error("dip buy failed", zap.Error(err))
					if err := s.sleep(ctx, retryInterval); err != nil {
						return err
					}
					continue
				}
				break
			}
		}

		if err := s.sleep(ctx, priceCheckInterval); err != nil {
			return err
		}
	}

	return s.WatchPriceAndSell(ctx)
}
