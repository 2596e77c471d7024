// package pool prepares a pool for trading: waiting for it to exist,
// creating the token account and holding until the pool opens.
package pool

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"sniper/internal/utils"
	"sniper/service/raydium"
)

// searchInterval is how often the chain is re-scanned while the pool
// does not exist yet.
const searchInterval = 3 * time.Second

// accountCreationWindow: pools opening further out than this don't get
// their token account created up front.
const accountCreationWindow = 30 * time.Second

// Resolver locates a token's pool and its open time.
type Resolver interface {
	PoolKeys(ctx context.Context, token solana.PublicKey) (*raydium.PoolKeys, time.Time, error)
}

// AccountEnsurer creates the wallet's token account for a mint.
type AccountEnsurer interface {
	EnsureTokenAccount(ctx context.Context, mint solana.PublicKey) error
}

// Service acquires pools ahead of an entry strategy.
type Service struct {
	resolver Resolver
	accounts AccountEnsurer
	log      *zap.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewService creates a new pool acquisition service.
func NewService(resolver Resolver, accounts AccountEnsurer, log *zap.Logger) *Service {
	return &Service{
		resolver: resolver,
		accounts: accounts,
		log:      log.Named("pool"),
		now:      time.Now,
		sleep:    sleepCtx,
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

// Acquire blocks until the token's pool exists and is open for trading.
// When createAccount is set the associated token account is created up
// front, unless the pool opens too far in the future or has no schedule.
func (s *Service) Acquire(ctx context.Context, token solana.PublicKey, createAccount bool) (*raydium.PoolKeys, error) {
	var (
		keys     *raydium.PoolKeys
		openTime time.Time
	)

	for {
		var err error
		keys, openTime, err = s.resolver.PoolKeys(ctx, token)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.Is(err, raydium.ErrPoolNotFound) {
			s.log.Warn("pool lookup failed", zap.Error(err))
		} else {
			s.log.Warn("market does not exist yet, retrying in 3s")
		}
		if err := s.sleep(ctx, searchInterval); err != nil {
			return nil, err
		}
	}

	s.log.Info("pool start date",
		zap.String("pool", keys.ID.String()),
		zap.String("startDate", utils.FormatTimestamp(openTimeMillis(openTime))),
	)

	if createAccount && s.skipAccountCreation(openTime) {
		s.log.Info("pool starts in more than 30s, skipping account creation")
		createAccount = false
	}
	if createAccount {
		if err := s.accounts.EnsureTokenAccount(ctx, token); err != nil {
			return nil, err
		}
	}

	if err := s.waitForOpen(ctx, openTime); err != nil {
		return nil, err
	}
	return keys, nil
}

// skipAccountCreation implements the pre-open window rule: creation is
// pointless with no schedule and wasteful long before the open.
func (s *Service) skipAccountCreation(openTime time.Time) bool {
	if openTime.IsZero() {
		return true
	}
	return openTime.Sub(s.now()) > accountCreationWindow
}

// waitForOpen spins in short sleeps until the open time passes. The
// interval is tiny on purpose: the first transactions into a new pool
// win or lose on milliseconds.
func (s *Service) waitForOpen(ctx context.Context, openTime time.Time) error {
	if openTime.IsZero() || !openTime.After(s.now()) {
		return nil
	}

	s.log.Info("waiting for pool to open",
		zap.Float64("seconds", openTime.Sub(s.now()).Seconds()),
	)
	for s.now().Before(openTime) {
		if err := s.sleep(ctx, time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func openTimeMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
