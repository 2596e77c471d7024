// package solana provides utilities for interacting with the Solana blockchain
package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"sniper/internal/datatypes"
	"sniper/service/raydium"
)

// Defaults for associated token account creation on a pool that may not
// be accepting transactions yet.
const (
	createAccountRetries = 25
	createAccountTimeout = 15 * time.Second
)

// Service handles Solana wallet and account operations.
type Service struct {
	client *rpc.Client
	wallet solana.PrivateKey
	owner  solana.PublicKey
	log    *zap.Logger

	sleep func(context.Context, time.Duration) error
}

// NewService creates a new Solana service instance
func NewService(client *rpc.Client, wallet solana.PrivateKey, log *zap.Logger) *Service {
	return &Service{
		client: client,
		wallet: wallet,
		owner:  wallet.PublicKey(),
		log:    log.Named("solana"),
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

// CheckSolBalance retrieves the SOL balance for a wallet
func (s *Service) CheckSolBalance(ctx context.Context, walletAddress solana.PublicKey) (float64, error) {
	balance, err := s.client.GetBalance(
		ctx,
		walletAddress,
		rpc.CommitmentProcessed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %v", err)
	}

	// Convert lamports to SOL
	return float64(balance.Value) / 1e9, nil
}

// FindTokenAccount derives the associated token account for a mint and
// reports whether it exists on chain.
func (s *Service) FindTokenAccount(ctx context.Context, walletAddress solana.PublicKey, tokenMint solana.PublicKey) (solana.PublicKey, bool, error) {
	tokenAccount, _, err := solana.FindAssociatedTokenAddress(walletAddress, tokenMint)
	if err != nil {
		return solana.PublicKey{}, false, fmt.Errorf("failed to derive token account: %v", err)
	}

	_, err = s.client.GetAccountInfoWithOpts(ctx, tokenAccount, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentProcessed,
	})
	exists := err == nil

	return tokenAccount, exists, nil
}

// TokensOwnedBy lists the SPL token positions held by a wallet with
// their raw amounts.
func (s *Service) TokensOwnedBy(ctx context.Context, owner solana.PublicKey) ([]datatypes.OwnedToken, error) {
	res, err := s.client.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{ProgramId: solana.TokenProgramID.ToPointer()},
		&rpc.GetTokenAccountsOpts{
			Commitment: rpc.CommitmentProcessed,
			Encoding:   solana.EncodingBase64,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list token accounts: %v", err)
	}

	tokens := make([]datatypes.OwnedToken, 0, len(res.Value))
	for _, keyed := range res.Value {
		account, err := raydium.DecodeTokenAccount(keyed.Account.Data.GetBinary())
		if err != nil {
			s.log.Warn("skipping undecodable token account",
				zap.String("account", keyed.Pubkey.String()),
				zap.Error(err),
			)
			continue
		}
		tokens = append(tokens, datatypes.OwnedToken{
			TokenAddress: account.Mint.String(),
			Amount:       account.Amount,
		})
	}
	return tokens, nil
}

// EnsureTokenAccount creates the wallet's associated token account for
// a mint, retrying until the account is visible. New pools reject
// transactions until their first block, so creation is expected to fail
// for a while.
func (s *Service) EnsureTokenAccount(ctx context.Context, mint solana.PublicKey) error {
	for attempt := 0; attempt < createAccountRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, createAccountTimeout)
		err := s.createTokenAccountOnce(attemptCtx, mint)
		cancel()
		if err == nil {
			s.log.Info("associated token account ready", zap.String("mint", mint.String()))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.log.Warn("retrying account creation", zap.Error(err))
		if err := s.sleep(ctx, createAccountTimeout); err != nil {
			return err
		}
	}
	return fmt.Errorf("couldn't create associated token account for %s", mint)
}

func (s *Service) createTokenAccountOnce(ctx context.Context, mint solana.PublicKey) error {
	account, exists, err := s.FindTokenAccount(ctx, s.owner, mint)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentProcessed)
	if err != nil {
		return fmt.Errorf("failed to fetch blockhash: %v", err)
	}

	createIx := associatedtokenaccount.NewCreateInstruction(s.owner, s.owner, mint).Build()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{createIx},
		recent.Value.Blockhash,
		solana.TransactionPayer(s.owner),
	)
	if err != nil {
		return fmt.Errorf("failed to build account creation transaction: %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.owner) {
			return &s.wallet
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to sign account creation transaction: %v", err)
	}

	if _, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{SkipPreflight: true}); err != nil {
		return fmt.Errorf("failed to send account creation: %v", err)
	}

	// Creation only counts once the account is actually visible.
	_, exists, err = s.FindTokenAccount(ctx, s.owner, mint)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("account %s not visible yet", account)
	}
	return nil
}
