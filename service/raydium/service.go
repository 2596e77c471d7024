// package raydium talks to Raydium AMM v4 pools: finding them, pricing
// them and building swap transactions against them.
package raydium

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// ErrPoolNotFound is returned while a pool for the requested pair does
// not exist yet.
var ErrPoolNotFound = fmt.Errorf("no pool found for token pair")

// Service handles all Raydium RPC interactions for one wallet.
type Service struct {
	client *rpc.Client
	wsURL  string
	wallet solana.PrivateKey
	owner  solana.PublicKey
	log    *zap.Logger
}

// NewService creates a new Raydium service.
func NewService(client *rpc.Client, wsURL string, wallet solana.PrivateKey, log *zap.Logger) *Service {
	return &Service{
		client: client,
		wsURL:  wsURL,
		wallet: wallet,
		owner:  wallet.PublicKey(),
		log:    log.Named("raydium"),
	}
}

// Owner returns the wallet public key the service signs with.
func (s *Service) Owner() solana.PublicKey {
	return s.owner
}

// findPoolAccount scans the AMM program for a pool whose base/quote
// mints match the given pair at the given offsets.
func (s *Service) findPoolAccount(ctx context.Context, mintA, mintB solana.PublicKey) (solana.PublicKey, *LiquidityStateV4, error) {
	res, err := s.client.GetProgramAccountsWithOpts(ctx, AmmProgramID, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentProcessed,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{DataSize: LiquidityStateV4Span},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: PoolBaseMintOffset, Bytes: solana.Base58(mintA.Bytes())}},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: PoolQuoteMintOffset, Bytes: solana.Base58(mintB.Bytes())}},
		},
	})
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("program account scan failed: %v", err)
	}
	if len(res) == 0 {
		return solana.PublicKey{}, nil, ErrPoolNotFound
	}

	state, err := DecodeLiquidityStateV4(res[0].Account.Data.GetBinary())
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return res[0].Pubkey, state, nil
}

// PoolKeys locates the WSOL pool for a token and assembles its full key
// set, including the OpenBook market accounts. The pool open time comes
// back alongside; a zero time means the pool has no schedule.
func (s *Service) PoolKeys(ctx context.Context, token solana.PublicKey) (*PoolKeys, time.Time, error) {
	poolID, state, err := s.findPoolAccount(ctx, token, solana.WrappedSol)
	if err == ErrPoolNotFound {
		poolID, state, err = s.findPoolAccount(ctx, solana.WrappedSol, token)
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	marketRes, err := s.client.GetAccountInfoWithOpts(ctx, state.MarketID, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentProcessed,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to fetch market %s: %v", state.MarketID, err)
	}

	market, err := DecodeMarketStateV3(marketRes.Value.Data.GetBinary())
	if err != nil {
		return nil, time.Time{}, err
	}

	keys, err := AssemblePoolKeys(poolID, state, market)
	if err != nil {
		return nil, time.Time{}, err
	}

	var openTime time.Time
	if state.PoolOpenTime != 0 {
		openTime = time.Unix(int64(state.PoolOpenTime), 0)
	}

	s.log.Info("pool resolved",
		zap.String("pool", poolID.String()),
		zap.String("baseMint", keys.BaseMint.String()),
		zap.String("quoteMint", keys.QuoteMint.String()),
	)
	return keys, openTime, nil
}

// PoolInfo fetches the pool's live reserves. Pending protocol pnl is
// subtracted from the raw vault balances.
func (s *Service) PoolInfo(ctx context.Context, keys *PoolKeys) (*PoolInfo, error) {
	res, err := s.client.GetMultipleAccountsWithOpts(ctx,
		[]solana.PublicKey{keys.BaseVault, keys.QuoteVault, keys.ID},
		&rpc.GetMultipleAccountsOpts{
			Commitment: rpc.CommitmentProcessed,
			Encoding:   solana.EncodingBase64,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool accounts: %v", err)
	}
	if len(res.Value) != 3 || res.Value[0] == nil || res.Value[1] == nil || res.Value[2] == nil {
		return nil, fmt.Errorf("pool %s accounts missing", keys.ID)
	}

	baseVault, err := DecodeTokenAccount(res.Value[0].Data.GetBinary())
	if err != nil {
		return nil, err
	}
	quoteVault, err := DecodeTokenAccount(res.Value[1].Data.GetBinary())
	if err != nil {
		return nil, err
	}
	state, err := DecodeLiquidityStateV4(res.Value[2].Data.GetBinary())
	if err != nil {
		return nil, err
	}

	baseReserve := new(big.Int).SetUint64(baseVault.Amount)
	baseReserve.Sub(baseReserve, new(big.Int).SetUint64(state.BaseNeedTakePnl))
	quoteReserve := new(big.Int).SetUint64(quoteVault.Amount)
	quoteReserve.Sub(quoteReserve, new(big.Int).SetUint64(state.QuoteNeedTakePnl))

	return &PoolInfo{
		Status:        state.Status,
		BaseDecimals:  int(state.BaseDecimal),
		QuoteDecimals: int(state.QuoteDecimal),
		BaseReserve:   baseReserve,
		QuoteReserve:  quoteReserve,
	}, nil
}

// Price returns the pool's current price, quote per base in human
// units.
func (s *Service) Price(ctx context.Context, keys *PoolKeys) (float64, error) {
	info, err := s.PoolInfo(ctx, keys)
	if err != nil {
		return 0, err
	}
	return PoolPrice(info)
}

// Quote re-fetches the reserves and prices a swap receiving tokenOut.
func (s *Service) Quote(ctx context.Context, keys *PoolKeys, tokenOut solana.PublicKey, amountIn float64) (*SwapQuote, error) {
	info, err := s.PoolInfo(ctx, keys)
	if err != nil {
		return nil, err
	}
	return ComputeAmountOut(info, keys, tokenOut, amountIn)
}

// SwapTransaction builds and signs a swap that receives tokenOut. The
// compute unit limit is keyed off the fixed side mode and the priority
// fee comes from maxLamports, in micro-lamports.
func (s *Service) SwapTransaction(
	ctx context.Context,
	keys *PoolKeys,
	tokenOut solana.PublicKey,
	amountIn float64,
	maxLamports uint64,
	fixedSide FixedSide,
) (*solana.Transaction, error) {
	quote, err := s.Quote(ctx, keys, tokenOut, amountIn)
	if err != nil {
		return nil, err
	}

	tokenIn := keys.BaseMint
	if tokenOut == keys.BaseMint {
		tokenIn = keys.QuoteMint
	}

	sourceAccount, _, err := solana.FindAssociatedTokenAddress(s.owner, tokenIn)
	if err != nil {
		return nil, fmt.Errorf("failed to derive source token account: %v", err)
	}
	destAccount, _, err := solana.FindAssociatedTokenAddress(s.owner, tokenOut)
	if err != nil {
		return nil, fmt.Errorf("failed to derive destination token account: %v", err)
	}

	swapIx, err := NewSwapInstruction(
		keys,
		sourceAccount,
		destAccount,
		s.owner,
		quote.AmountIn.Uint64(),
		quote.MinAmountOut.Uint64(),
		fixedSide,
	)
	if err != nil {
		return nil, err
	}

	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentProcessed)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blockhash: %v", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			computebudget.NewSetComputeUnitPriceInstruction(maxLamports).Build(),
			computebudget.NewSetComputeUnitLimitInstruction(ComputeUnitLimit(fixedSide)).Build(),
			swapIx,
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(s.owner),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %v", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.owner) {
			return &s.wallet
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %v", err)
	}

	s.log.Debug("swap transaction built",
		zap.String("tokenOut", tokenOut.String()),
		zap.Float64("amountIn", amountIn),
		zap.String("amountOut", quote.AmountOut.String()),
		zap.String("minAmountOut", quote.MinAmountOut.String()),
		zap.Float64("executionPrice", quote.ExecutionPrice),
	)
	return tx, nil
}

// SendTransaction broadcasts a signed transaction with preflight
// disabled. Speed matters more than simulation on a sniped pool.
func (s *Service) SendTransaction(ctx context.Context, tx *solana.Transaction, maxRetries uint) (solana.Signature, error) {
	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight: true,
		MaxRetries:    &maxRetries,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %v", err)
	}
	return sig, nil
}

// TokenBalance returns the wallet's raw balance of a mint, zero when
// the associated account does not exist yet.
func (s *Service) TokenBalance(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	account, _, err := solana.FindAssociatedTokenAddress(s.owner, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to derive token account: %v", err)
	}

	res, err := s.client.GetTokenAccountBalance(ctx, account, rpc.CommitmentProcessed)
	if err != nil {
		// A missing account reads as an empty position.
		return 0, nil
	}
	if res.Value == nil {
		return 0, nil
	}

	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %v", err)
	}
	return amount, nil
}

