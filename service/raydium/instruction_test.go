package raydium

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSwapInstructionBaseIn(t *testing.T) {
	keys := &PoolKeys{
		ID:               solana.NewWallet().PublicKey(),
		ProgramID:        AmmProgramID,
		Authority:        AmmAuthority,
		OpenOrders:       solana.NewWallet().PublicKey(),
		TargetOrders:     solana.NewWallet().PublicKey(),
		BaseVault:        solana.NewWallet().PublicKey(),
		QuoteVault:       solana.NewWallet().PublicKey(),
		MarketProgramID:  OpenBookProgramID,
		MarketID:         solana.NewWallet().PublicKey(),
		MarketBids:       solana.NewWallet().PublicKey(),
		MarketAsks:       solana.NewWallet().PublicKey(),
		MarketEventQueue: solana.NewWallet().PublicKey(),
		MarketBaseVault:  solana.NewWallet().PublicKey(),
		MarketQuoteVault: solana.NewWallet().PublicKey(),
		MarketAuthority:  solana.NewWallet().PublicKey(),
	}
	source := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	ix, err := NewSwapInstruction(keys, source, dest, owner, 1_000_000, 990_000, FixedSideIn)
	require.NoError(t, err)

	assert.Equal(t, AmmProgramID, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 17)
	assert.Equal(t, uint8(9), data[0])
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(990_000), binary.LittleEndian.Uint64(data[9:17]))

	accounts := ix.Accounts()
	require.Len(t, accounts, 18)
	assert.Equal(t, solana.TokenProgramID, accounts[0].PublicKey)
	assert.False(t, accounts[0].IsWritable)
	assert.Equal(t, keys.ID, accounts[1].PublicKey)
	assert.True(t, accounts[1].IsWritable)
	assert.Equal(t, keys.Authority, accounts[2].PublicKey)
	assert.Equal(t, keys.MarketAuthority, accounts[14].PublicKey)
	assert.Equal(t, source, accounts[15].PublicKey)
	assert.Equal(t, dest, accounts[16].PublicKey)
	assert.Equal(t, owner, accounts[17].PublicKey)
	assert.True(t, accounts[17].IsSigner)
}

func TestNewSwapInstructionBaseOut(t *testing.T) {
	keys := &PoolKeys{ProgramID: AmmProgramID}

	ix, err := NewSwapInstruction(keys, solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, 5, 7, FixedSideOut)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, uint8(11), data[0])
}

func TestNewSwapInstructionRejectsUnknownSide(t *testing.T) {
	_, err := NewSwapInstruction(&PoolKeys{}, solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, 1, 1, FixedSide("sideways"))
	assert.Error(t, err)
}
