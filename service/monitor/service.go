// package monitor runs the price watch loops: the exit monitor that
// sells on stop loss or take profit, and the entry flows that feed it.
package monitor

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"sniper/internal/datatypes"
	"sniper/internal/keyboard"
	"sniper/internal/utils"
	"sniper/service/raydium"
)

// Polling and retry cadence. The price check is deliberately tight;
// everything slower is an error backoff.
const (
	priceCheckInterval = 10 * time.Millisecond
	retryInterval      = time.Second
	sellRetryDelay     = 1200 * time.Millisecond

	// A position is sold up to this many times. Re-broadcasting the sell
	// protects against a dropped transaction on a dying pool.
	maxSellRetries = 5

	// broadcastRetries is handed to the RPC node per transaction.
	broadcastRetries = 20
)

// Trader is the slice of the Raydium service the monitor needs.
type Trader interface {
	Price(ctx context.Context, keys *raydium.PoolKeys) (float64, error)
	TokenBalance(ctx context.Context, mint solana.PublicKey) (uint64, error)
	SwapTransaction(ctx context.Context, keys *raydium.PoolKeys, tokenOut solana.PublicKey, amountIn float64, maxLamports uint64, fixedSide raydium.FixedSide) (*solana.Transaction, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction, maxRetries uint) (solana.Signature, error)
}

// Service watches one pool for one token position.
type Service struct {
	trader Trader
	keys   *raydium.PoolKeys
	token  solana.PublicKey

	// cfg is copied in and never written after construction, so the
	// thresholds a running loop computes stay stable.
	cfg  datatypes.Config
	sell datatypes.SellConfig

	log  *zap.Logger
	out  io.Writer
	keyc <-chan byte
	quit func()

	mu          sync.Mutex
	shouldSell  bool
	shouldBuy   bool
	sellRetries int

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewService creates a monitor for a pool and the token traded in it.
func NewService(trader Trader, keys *raydium.PoolKeys, token solana.PublicKey, cfg datatypes.Config, sell datatypes.SellConfig, log *zap.Logger) *Service {
	return &Service{
		trader: trader,
		keys:   keys,
		token:  token,
		cfg:    cfg,
		sell:   sell,
		log:    log.Named("monitor"),
		out:    os.Stdout,
		quit:   func() { os.Exit(0) },
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// SetKeyInput wires a keystroke stream and the quit action invoked on a
// quit key.
func (s *Service) SetKeyInput(keys <-chan byte, quit func()) {
	s.keyc = keys
	if quit != nil {
		s.quit = quit
	}
}

// EnableManualSell arms the sell trigger, as if the sell key had been
// pressed.
func (s *Service) EnableManualSell() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldSell = true
}

// EnableManualBuy arms the buy trigger for the entry loops.
func (s *Service) EnableManualBuy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldBuy = true
}

func (s *Service) manualSellRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldSell
}

func (s *Service) manualBuyRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldBuy
}

func (s *Service) sellRetryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sellRetries
}

// consumeKeys drains pending keystrokes without blocking the poll loop.
func (s *Service) consumeKeys() {
	for {
		select {
		case k, ok := <-s.keyc:
			if !ok {
				s.keyc = nil
				return
			}
			switch {
			case keyboard.IsQuit(k):
				s.quit()
			case k == keyboard.KeySell:
				s.EnableManualSell()
			case k == keyboard.KeyBuy:
				s.EnableManualBuy()
			}
		default:
			return
		}
	}
}

// WatchPriceAndSell polls the pool price and exits the position when a
// threshold breaks, a manual sell arrives, or instant sell is on. The
// thresholds are fixed off the first observed price and never move.
func (s *Service) WatchPriceAndSell(ctx context.Context) error {
	var initial, lossThreshold, profitThreshold float64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.consumeKeys()

		price, err := s.trader.Price(ctx, s.keys)
		if err != nil {
			s.log.Error("price monitoring error", zap.Error(err))
			if err := s.sleep(ctx, priceCheckInterval); err != nil {
				return err
			}
			continue
		}

		if initial == 0 {
			initial = price
			lossThreshold = initial * (1 - s.cfg.StopLoss)
			profitThreshold = initial * (1 + s.cfg.TakeProfit)
			s.log.Info("watching position",
				zap.Float64("initialPrice", initial),
				zap.Float64("stopLoss", lossThreshold),
				zap.Float64("takeProfit", profitThreshold),
			)
		}

		if s.cfg.ShowInterface {
			s.displayPriceInterface(price, initial, lossThreshold, profitThreshold)
		}

		shouldExecuteSell := s.cfg.InstantSell ||
			price < lossThreshold ||
			price > profitThreshold ||
			s.manualSellRequested()

		if shouldExecuteSell {
			if err := s.executeSell(ctx, price, lossThreshold); err != nil {
				s.log.Error("sell failed", zap.Error(err))
				if err := s.sleep(ctx, priceCheckInterval); err != nil {
					return err
				}
				continue
			}
			if s.sellRetryCount() >= maxSellRetries {
				return nil
			}
		}

		if err := s.sleep(ctx, priceCheckInterval); err != nil {
			return err
		}
	}
}

func (s *Service) displayPriceInterface(price, initial, lossThreshold, profitThreshold float64) {
	actualPercent := (price - initial) / initial * 100
	neededPercent := profitThreshold*100/price - 100
	lossPercent := 100 - lossThreshold*100/price

	spinner := utils.LoadingSymbols[int(s.now().UnixMilli()/250)%len(utils.LoadingSymbols)]
	fmt.Fprint(s.out, "\x1b[2J\x1b[H")
	fmt.Fprintln(s.out, "Watching", spinner)
	fmt.Fprintln(s.out, `Press "Space" to sell`)
	fmt.Fprintln(s.out, `Press "Q" to exit`)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Actual:", utils.FormatColoredPercentage(actualPercent))
	fmt.Fprintf(s.out, "TP in: %.1f%%\n", neededPercent)
	fmt.Fprintf(s.out, "SL in: %.1f%%\n", lossPercent)
}

// executeSell flushes the whole position back to SOL. The token amount
// is polled until the buy has actually landed, since a sell can trigger
// before the buy transaction is visible.
func (s *Service) executeSell(ctx context.Context, price, lossThreshold float64) error {
	trigger := "take profit"
	if price < lossThreshold {
		trigger = "stop loss"
	}
	s.log.Info("sell triggered", zap.String("trigger", trigger), zap.Float64("price", price))

	var amount uint64
	for amount == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := s.trader.TokenBalance(ctx, s.token)
		if err != nil {
			return err
		}
		amount = a
	}

	multiplier := raydium.SellAmountMultiplier(s.keys.QuoteDecimals)
	sellAmount := float64(amount) / math.Pow10(s.keys.BaseDecimals) * multiplier

	tx, err := s.trader.SwapTransaction(ctx, s.keys, solana.WrappedSol, sellAmount, s.sell.MaxLamports, raydium.FixedSide(s.sell.Direction))
	if err != nil {
		return err
	}
	sig, err := s.trader.SendTransaction(ctx, tx, broadcastRetries)
	if err != nil {
		return err
	}

	s.log.Info("sell transaction sent", zap.String("signature", sig.String()))
	fmt.Fprintln(s.out, utils.SolscanTxURL(sig.String()))
	fmt.Fprintln(s.out, utils.DexscreenerURL(s.token.String()))

	s.mu.Lock()
	s.shouldSell = false
	s.sellRetries++
	retries := s.sellRetries
	s.mu.Unlock()

	if retries < maxSellRetries {
		if err := s.sleep(ctx, sellRetryDelay); err != nil {
			return err
		}
	}
	return nil
}
