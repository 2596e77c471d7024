package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Account sizes and the field offsets used both for decoding and for
// RPC memcmp filters. Decoding reads fixed offsets directly instead of
// walking a layout description; the offsets are the contract.
const (
	LiquidityStateV4Span = 752
	MarketStateV3Span    = 388
	TokenAccountSpan     = 165

	// LIQUIDITY_STATE_LAYOUT_V4 offsets.
	poolStatusOffset        = 0
	poolBaseDecimalOffset   = 32
	poolQuoteDecimalOffset  = 40
	poolBaseNeedPnlOffset   = 192
	poolQuoteNeedPnlOffset  = 200
	poolOpenTimeOffset      = 224
	poolBaseVaultOffset     = 336
	poolQuoteVaultOffset    = 368
	PoolBaseMintOffset      = 400
	PoolQuoteMintOffset     = 432
	poolLpMintOffset        = 464
	poolOpenOrdersOffset    = 496
	poolMarketIDOffset      = 528
	PoolMarketProgramOffset = 560
	poolTargetOrdersOffset  = 592
	poolWithdrawQueueOffset = 624
	poolLpVaultOffset       = 656

	// MARKET_STATE_LAYOUT_V3 offsets.
	marketOwnAddressOffset = 13
	marketVaultNonceOffset = 45
	marketBaseVaultOffset  = 117
	marketQuoteVaultOffset = 165
	marketEventQueueOffset = 253
	marketBidsOffset       = 285
	marketAsksOffset       = 317

	// SPL token account offsets.
	tokenAccountMintOffset   = 0
	TokenAccountOwnerOffset  = 32
	tokenAccountAmountOffset = 64
)

// LiquidityStateV4 is the subset of the AMM v4 pool account the bot
// reads.
type LiquidityStateV4 struct {
	Status           uint64
	BaseDecimal      uint64
	QuoteDecimal     uint64
	BaseNeedTakePnl  uint64
	QuoteNeedTakePnl uint64
	PoolOpenTime     uint64
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	LpMint           solana.PublicKey
	OpenOrders       solana.PublicKey
	MarketID         solana.PublicKey
	MarketProgramID  solana.PublicKey
	TargetOrders     solana.PublicKey
	WithdrawQueue    solana.PublicKey
	LpVault          solana.PublicKey
}

// MarketStateV3 is the subset of the OpenBook market account needed to
// assemble swap accounts.
type MarketStateV3 struct {
	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	EventQueue       solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
}

// TokenAccount is a decoded SPL token account.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

func pubkeyAt(data []byte, offset int) solana.PublicKey {
	return solana.PublicKeyFromBytes(data[offset : offset+32])
}

func u64At(data []byte, offset int) uint64 {
	return binary.LittleEndian.Uint64(data[offset : offset+8])
}

// DecodeLiquidityStateV4 decodes a raw AMM v4 pool account.
func DecodeLiquidityStateV4(data []byte) (*LiquidityStateV4, error) {
	if len(data) < LiquidityStateV4Span {
		return nil, fmt.Errorf("liquidity state too short: %d bytes", len(data))
	}
	return &LiquidityStateV4{
		Status:           u64At(data, poolStatusOffset),
		BaseDecimal:      u64At(data, poolBaseDecimalOffset),
		QuoteDecimal:     u64At(data, poolQuoteDecimalOffset),
		BaseNeedTakePnl:  u64At(data, poolBaseNeedPnlOffset),
		QuoteNeedTakePnl: u64At(data, poolQuoteNeedPnlOffset),
		PoolOpenTime:     u64At(data, poolOpenTimeOffset),
		BaseVault:        pubkeyAt(data, poolBaseVaultOffset),
		QuoteVault:       pubkeyAt(data, poolQuoteVaultOffset),
		BaseMint:         pubkeyAt(data, PoolBaseMintOffset),
		QuoteMint:        pubkeyAt(data, PoolQuoteMintOffset),
		LpMint:           pubkeyAt(data, poolLpMintOffset),
		OpenOrders:       pubkeyAt(data, poolOpenOrdersOffset),
		MarketID:         pubkeyAt(data, poolMarketIDOffset),
		MarketProgramID:  pubkeyAt(data, PoolMarketProgramOffset),
		TargetOrders:     pubkeyAt(data, poolTargetOrdersOffset),
		WithdrawQueue:    pubkeyAt(data, poolWithdrawQueueOffset),
		LpVault:          pubkeyAt(data, poolLpVaultOffset),
	}, nil
}

// DecodeMarketStateV3 decodes a raw OpenBook market account.
func DecodeMarketStateV3(data []byte) (*MarketStateV3, error) {
	if len(data) < MarketStateV3Span {
		return nil, fmt.Errorf("market state too short: %d bytes", len(data))
	}
	return &MarketStateV3{
		OwnAddress:       pubkeyAt(data, marketOwnAddressOffset),
		VaultSignerNonce: u64At(data, marketVaultNonceOffset),
		BaseVault:        pubkeyAt(data, marketBaseVaultOffset),
		QuoteVault:       pubkeyAt(data, marketQuoteVaultOffset),
		EventQueue:       pubkeyAt(data, marketEventQueueOffset),
		Bids:             pubkeyAt(data, marketBidsOffset),
		Asks:             pubkeyAt(data, marketAsksOffset),
	}, nil
}

// DecodeTokenAccount decodes a raw SPL token account.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) < TokenAccountSpan {
		return nil, fmt.Errorf("token account too short: %d bytes", len(data))
	}
	return &TokenAccount{
		Mint:   pubkeyAt(data, tokenAccountMintOffset),
		Owner:  pubkeyAt(data, TokenAccountOwnerOffset),
		Amount: u64At(data, tokenAccountAmountOffset),
	}, nil
}

// MarketAuthority derives the vault signer for an OpenBook market from
// its id and nonce.
func MarketAuthority(marketID solana.PublicKey, nonce uint64, marketProgram solana.PublicKey) (solana.PublicKey, error) {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, nonce)
	return solana.CreateProgramAddress([][]byte{marketID.Bytes(), seed}, marketProgram)
}

// PoolKeys carries every account needed to quote against and swap
// through one AMM v4 pool.
type PoolKeys struct {
	ID            solana.PublicKey
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	LpMint        solana.PublicKey
	BaseDecimals  int
	QuoteDecimals int
	Version       int
	ProgramID     solana.PublicKey
	Authority     solana.PublicKey
	OpenOrders    solana.PublicKey
	TargetOrders  solana.PublicKey
	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey
	WithdrawQueue solana.PublicKey
	LpVault       solana.PublicKey

	MarketVersion    int
	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
}

// AssemblePoolKeys combines a pool account and its market account into
// the key set the swap instruction needs.
func AssemblePoolKeys(poolID solana.PublicKey, state *LiquidityStateV4, market *MarketStateV3) (*PoolKeys, error) {
	authority, err := MarketAuthority(state.MarketID, market.VaultSignerNonce, state.MarketProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive market authority: %v", err)
	}
	return &PoolKeys{
		ID:            poolID,
		BaseMint:      state.BaseMint,
		QuoteMint:     state.QuoteMint,
		LpMint:        state.LpMint,
		BaseDecimals:  int(state.BaseDecimal),
		QuoteDecimals: int(state.QuoteDecimal),
		Version:       4,
		ProgramID:     AmmProgramID,
		Authority:     AmmAuthority,
		OpenOrders:    state.OpenOrders,
		TargetOrders:  state.TargetOrders,
		BaseVault:     state.BaseVault,
		QuoteVault:    state.QuoteVault,
		WithdrawQueue: state.WithdrawQueue,
		LpVault:       state.LpVault,

		MarketVersion:    3,
		MarketProgramID:  state.MarketProgramID,
		MarketID:         state.MarketID,
		MarketAuthority:  authority,
		MarketBaseVault:  market.BaseVault,
		MarketQuoteVault: market.QuoteVault,
		MarketBids:       market.Bids,
		MarketAsks:       market.Asks,
		MarketEventQueue: market.EventQueue,
	}, nil
}
