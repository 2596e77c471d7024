// package wallet mirrors the trades of another wallet: new token
// positions are bought, reduced positions are sold.
package wallet

import (
	"context"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"sniper/internal/datatypes"
	"sniper/service/raydium"
)

// broadcastRetries is handed to the RPC node per copied transaction.
const broadcastRetries = 20

// Trader is the slice of the Raydium service the copy watcher needs.
type Trader interface {
	PoolKeys(ctx context.Context, token solana.PublicKey) (*raydium.PoolKeys, time.Time, error)
	TokenBalance(ctx context.Context, mint solana.PublicKey) (uint64, error)
	SwapTransaction(ctx context.Context, keys *raydium.PoolKeys, tokenOut solana.PublicKey, amountIn float64, maxLamports uint64, fixedSide raydium.FixedSide) (*solana.Transaction, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction, maxRetries uint) (solana.Signature, error)
}

// Service follows one wallet's token accounts and copies its entries
// and exits with the configured size.
type Service struct {
	trader  Trader
	watched solana.PublicKey
	cfg     datatypes.Config
	sell    datatypes.SellConfig
	log     *zap.Logger

	// owned tracks the watched wallet's last known raw amount per mint.
	owned map[string]uint64
}

// NewService creates a copy watcher seeded with the watched wallet's
// current positions, so existing holdings don't read as fresh buys.
func NewService(trader Trader, watched solana.PublicKey, initial []datatypes.OwnedToken, cfg datatypes.Config, sell datatypes.SellConfig, log *zap.Logger) *Service {
	owned := make(map[string]uint64, len(initial))
	for _, t := range initial {
		owned[t.TokenAddress] = t.Amount
	}
	return &Service{
		trader:  trader,
		watched: watched,
		cfg:     cfg,
		sell:    sell,
		log:     log.Named("wallet"),
		owned:   owned,
	}
}

// Run consumes token account updates until the stream closes or ctx
// ends. Updates are dispatched one at a time, which keeps the per-token
// buy/sell ordering identical to the watched wallet's.
func (s *Service) Run(ctx context.Context, updates <-chan raydium.TokenAccountUpdate) error {
	s.log.Info("copying wallet", zap.String("wallet", s.watched.String()))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			s.handleUpdate(ctx, u)
		}
	}
}

// handleUpdate classifies one account change against the tracked
// positions.
func (s *Service) handleUpdate(ctx context.Context, u raydium.TokenAccountUpdate) {
	if u.Owner != s.watched {
		return
	}
	// Ignore the watched wallet's own SOL wrapping.
	if u.Mint == solana.WrappedSol {
		return
	}

	mint := u.Mint.String()
	prev, known := s.owned[mint]
	s.owned[mint] = u.Amount

	switch {
	case !known && u.Amount > 0:
		s.log.Info("watched wallet bought",
			zap.String("mint", mint),
			zap.Uint64("amount", u.Amount),
		)
		s.copyBuy(ctx, u.Mint)
	case known && u.Amount < prev:
		s.log.Info("watched wallet sold",
			zap.String("mint", mint),
			zap.Uint64("from", prev),
			zap.Uint64("to", u.Amount),
		)
		s.copySell(ctx, u.Mint)
	default:
		s.log.Debug("position updated",
			zap.String("mint", mint),
			zap.Uint64("amount", u.Amount),
		)
	}
}

// copyBuy enters the token with the configured SOL amount, not the
// watched wallet's size.
func (s *Service) copyBuy(ctx context.Context, mint solana.PublicKey) {
	keys, _, err := s.trader.PoolKeys(ctx, mint)
	if err != nil {
		s.log.Error("no pool for copied buy", zap.String("mint", mint.String()), zap.Error(err))
		return
	}

	tx, err := s.trader.SwapTransaction(ctx, keys, mint, s.cfg.TokenAAmount, s.cfg.MaxLamports, raydium.FixedSide(s.cfg.Direction))
	if err != nil {
		s.log.Error("copied buy build failed", zap.Error(err))
		return
	}
	sig, err := s.trader.SendTransaction(ctx, tx, broadcastRetries)
	if err != nil {
		s.log.Error("copied buy send failed", zap.Error(err))
		return
	}
	s.log.Info("copied buy sent",
		zap.String("mint", mint.String()),
		zap.String("signature", sig.String()),
	)
}

// copySell exits our own full position in the token, whatever fraction
// the watched wallet sold.
func (s *Service) copySell(ctx context.Context, mint solana.PublicKey) {
	amount, err := s.trader.TokenBalance(ctx, mint)
	if err != nil {
		s.log.Error("balance lookup failed for copied sell", zap.Error(err))
		return
	}
	if amount == 0 {
		s.log.Debug("nothing to sell", zap.String("mint", mint.String()))
		return
	}

	keys, _, err := s.trader.PoolKeys(ctx, mint)
	if err != nil {
		s.log.Error("no pool for copied sell", zap.String("mint", mint.String()), zap.Error(err))
		return
	}

	multiplier := raydium.SellAmountMultiplier(keys.QuoteDecimals)
	sellAmount := float64(amount) / math.Pow10(keys.BaseDecimals) * multiplier

	tx, err := s.trader.SwapTransaction(ctx, keys, solana.WrappedSol, sellAmount, s.sell.MaxLamports, raydium.FixedSide(s.sell.Direction))
	if err != nil {
		s.log.Error("copied sell build failed", zap.Error(err))
		return
	}
	sig, err := s.trader.SendTransaction(ctx, tx, broadcastRetries)
	if err != nil {
		s.log.Error("copied sell send failed", zap.Error(err))
		return
	}
	s.log.Info("copied sell sent",
		zap.String("mint", mint.String()),
		zap.String("signature", sig.String()),
	)
}
