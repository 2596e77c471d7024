package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AMM v4 swap instruction discriminators.
const (
	swapBaseInInstruction  uint8 = 9
	swapBaseOutInstruction uint8 = 11
)

// NewSwapInstruction builds the AMM v4 swap instruction. For fixed side
// "in", amountA is the exact input and amountB the minimum output; for
// fixed side "out" the roles invert.
func NewSwapInstruction(
	keys *PoolKeys,
	userSource solana.PublicKey,
	userDestination solana.PublicKey,
	owner solana.PublicKey,
	amountA uint64,
	amountB uint64,
	fixedSide FixedSide,
) (solana.Instruction, error) {
	var discriminator uint8
	switch fixedSide {
	case FixedSideIn:
		discriminator = swapBaseInInstruction
	case FixedSideOut:
		discriminator = swapBaseOutInstruction
	default:
		return nil, fmt.Errorf("unknown fixed side %q", fixedSide)
	}

	data := make([]byte, 17)
	data[0] = discriminator
	binary.LittleEndian.PutUint64(data[1:9], amountA)
	binary.LittleEndian.PutUint64(data[9:17], amountB)

	accounts := solana.AccountMetaSlice{
		solana.Meta(solana.TokenProgramID),
		solana.Meta(keys.ID).WRITE(),
		solana.Meta(keys.Authority),
		solana.Meta(keys.OpenOrders).WRITE(),
		solana.Meta(keys.TargetOrders).WRITE(),
		solana.Meta(keys.BaseVault).WRITE(),
		solana.Meta(keys.QuoteVault).WRITE(),
		solana.Meta(keys.MarketProgramID),
		solana.Meta(keys.MarketID).WRITE(),
		solana.Meta(keys.MarketBids).WRITE(),
		solana.Meta(keys.MarketAsks).WRITE(),
		solana.Meta(keys.MarketEventQueue).WRITE(),
		solana.Meta(keys.MarketBaseVault).WRITE(),
		solana.Meta(keys.MarketQuoteVault).WRITE(),
		solana.Meta(keys.MarketAuthority),
		solana.Meta(userSource).WRITE(),
		solana.Meta(userDestination).WRITE(),
		solana.Meta(owner).SIGNER().WRITE(),
	}

	return solana.NewInstruction(keys.ProgramID, accounts, data), nil
}
