package raydium

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"
)

// TokenAccountUpdate is one change to an SPL token account, as seen on
// the websocket feed.
type TokenAccountUpdate struct {
	Account solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
	Amount  uint64
}

// PoolUpdate is one change to an AMM v4 pool account.
type PoolUpdate struct {
	ID    solana.PublicKey
	State *LiquidityStateV4
}

func (s *Service) connectWS(ctx context.Context) (*ws.Client, error) {
	if s.wsURL == "" {
		return nil, fmt.Errorf("no websocket endpoint configured")
	}
	client, err := ws.Connect(ctx, s.wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect websocket: %v", err)
	}
	return client, nil
}

// SubscribeTokenAccounts streams token account changes for one owner.
// The channel closes when the subscription drops or ctx ends.
func (s *Service) SubscribeTokenAccounts(ctx context.Context, owner solana.PublicKey) (<-chan TokenAccountUpdate, error) {
	client, err := s.connectWS(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := client.ProgramSubscribeWithOpts(
		solana.TokenProgramID,
		rpc.CommitmentProcessed,
		solana.EncodingBase64,
		[]rpc.RPCFilter{
			{DataSize: TokenAccountSpan},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: TokenAccountOwnerOffset, Bytes: solana.Base58(owner.Bytes())}},
		},
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to subscribe to token accounts: %v", err)
	}

	updates := make(chan TokenAccountUpdate, 64)
	go func() {
		defer close(updates)
		defer client.Close()
		defer sub.Unsubscribe()

		for {
			msg, err := sub.Recv(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Error("token account subscription dropped", zap.Error(err))
				}
				return
			}

			account, err := DecodeTokenAccount(msg.Value.Account.Data.GetBinary())
			if err != nil {
				s.log.Warn("skipping undecodable token account", zap.Error(err))
				continue
			}

			select {
			case updates <- TokenAccountUpdate{
				Account: msg.Value.Pubkey,
				Mint:    account.Mint,
				Owner:   account.Owner,
				Amount:  account.Amount,
			}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates, nil
}

// SubscribeNewPools streams AMM v4 pool account changes for WSOL-quoted
// OpenBook pools.
func (s *Service) SubscribeNewPools(ctx context.Context) (<-chan PoolUpdate, error) {
	client, err := s.connectWS(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := client.ProgramSubscribeWithOpts(
		AmmProgramID,
		rpc.CommitmentProcessed,
		solana.EncodingBase64,
		[]rpc.RPCFilter{
			{DataSize: LiquidityStateV4Span},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: PoolQuoteMintOffset, Bytes: solana.Base58(solana.WrappedSol.Bytes())}},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: PoolMarketProgramOffset, Bytes: solana.Base58(OpenBookProgramID.Bytes())}},
		},
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to subscribe to pool accounts: %v", err)
	}

	updates := make(chan PoolUpdate, 64)
	go func() {
		defer close(updates)
		defer client.Close()
		defer sub.Unsubscribe()

		for {
			msg, err := sub.Recv(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Error("pool subscription dropped", zap.Error(err))
				}
				return
			}

			state, err := DecodeLiquidityStateV4(msg.Value.Account.Data.GetBinary())
			if err != nil {
				s.log.Warn("skipping undecodable pool account", zap.Error(err))
				continue
			}

			select {
			case updates <- PoolUpdate{ID: msg.Value.Pubkey, State: state}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates, nil
}
