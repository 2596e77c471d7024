package solana

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSignature is 64 zero bytes in base58, a shape sendTransaction
// accepts as its result.
var fakeSignature = strings.Repeat("1", 64)

type rpcCall struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newRPCService starts a JSON-RPC stub and wires a Service against it.
// The handler returns the result JSON for a method, or an error message
// prefixed with "!".
func newRPCService(t *testing.T, handle func(method string) string) *Service {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var call rpcCall
		require.NoError(t, json.Unmarshal(body, &call))

		w.Header().Set("Content-Type", "application/json")
		result := handle(call.Method)
		if strings.HasPrefix(result, "!") {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32002,"message":%q}}`, call.ID, result[1:])
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, call.ID, result)
	}))
	t.Cleanup(srv.Close)

	wallet := solana.NewWallet()
	svc := NewService(rpc.New(srv.URL), wallet.PrivateKey, zap.NewNop())
	return svc
}

func blockhashResult() string {
	return fmt.Sprintf(
		`{"context":{"slot":1},"value":{"blockhash":"%s","lastValidBlockHeight":1000}}`,
		solana.NewWallet().PublicKey(),
	)
}

func accountResult(data []byte) string {
	return fmt.Sprintf(
		`{"context":{"slot":1},"value":{"data":["%s","base64"],"executable":false,"lamports":2039280,"owner":"%s","rentEpoch":0}}`,
		base64.StdEncoding.EncodeToString(data),
		solana.TokenProgramID,
	)
}

func tokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, 165)
	copy(data[0:32], mint.Bytes())
	copy(data[32:64], owner.Bytes())
	binary.LittleEndian.PutUint64(data[64:72], amount)
	return data
}

func TestCheckSolBalance(t *testing.T) {
	svc := newRPCService(t, func(method string) string {
		require.Equal(t, "getBalance", method)
		return `{"context":{"slot":1},"value":2500000000}`
	})

	balance, err := svc.CheckSolBalance(context.Background(), svc.owner)
	require.NoError(t, err)
	assert.Equal(t, 2.5, balance)
}

func TestTokensOwnedBy(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	data := tokenAccountData(mint, owner, 42_000_000)

	svc := newRPCService(t, func(method string) string {
		require.Equal(t, "getTokenAccountsByOwner", method)
		return fmt.Sprintf(
			`{"context":{"slot":1},"value":[{"pubkey":"%s","account":{"data":["%s","base64"],"executable":false,"lamports":2039280,"owner":"%s","rentEpoch":0}}]}`,
			solana.NewWallet().PublicKey(),
			base64.StdEncoding.EncodeToString(data),
			solana.TokenProgramID,
		)
	})

	tokens, err := svc.TokensOwnedBy(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, mint.String(), tokens[0].TokenAddress)
	assert.Equal(t, uint64(42_000_000), tokens[0].Amount)
}

func TestFindTokenAccountReportsExistence(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	present := false
	svc := newRPCService(t, func(method string) string {
		require.Equal(t, "getAccountInfo", method)
		if present {
			return accountResult(tokenAccountData(mint, solana.NewWallet().PublicKey(), 1))
		}
		return `{"context":{"slot":1},"value":null}`
	})

	expected, _, err := solana.FindAssociatedTokenAddress(svc.owner, mint)
	require.NoError(t, err)

	account, exists, err := svc.FindTokenAccount(context.Background(), svc.owner, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, account)
	assert.False(t, exists)

	present = true
	_, exists, err = svc.FindTokenAccount(context.Background(), svc.owner, mint)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEnsureTokenAccountReturnsWhenAccountExists(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	sends := 0
	svc := newRPCService(t, func(method string) string {
		switch method {
		case "getAccountInfo":
			return accountResult(tokenAccountData(mint, solana.NewWallet().PublicKey(), 1))
		case "sendTransaction":
			sends++
			return fmt.Sprintf("%q", fakeSignature)
		default:
			return blockhashResult()
		}
	})

	err := svc.EnsureTokenAccount(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, 0, sends)
}

func TestEnsureTokenAccountStopsAfterBoundedRetries(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	sends := 0
	svc := newRPCService(t, func(method string) string {
		switch method {
		case "getAccountInfo":
			return `{"context":{"slot":1},"value":null}`
		case "getLatestBlockhash":
			return blockhashResult()
		case "sendTransaction":
			sends++
			return "!Transaction simulation failed"
		default:
			return `{"context":{"slot":1},"value":null}`
		}
	})

	sleeps := 0
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		assert.Equal(t, createAccountTimeout, d)
		return nil
	}

	err := svc.EnsureTokenAccount(context.Background(), mint)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't create associated token account")
	assert.Equal(t, createAccountRetries, sends)
	assert.Equal(t, createAccountRetries, sleeps)
}

func TestCreateTokenAccountOnceRequiresVisibility(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	lookups := 0
	visibleAfterSend := false
	svc := newRPCService(t, func(method string) string {
		switch method {
		case "getAccountInfo":
			lookups++
			if visibleAfterSend && lookups > 1 {
				return accountResult(tokenAccountData(mint, solana.NewWallet().PublicKey(), 1))
			}
			return `{"context":{"slot":1},"value":null}`
		case "getLatestBlockhash":
			return blockhashResult()
		case "sendTransaction":
			return fmt.Sprintf("%q", fakeSignature)
		default:
			return `{"context":{"slot":1},"value":null}`
		}
	})

	// The send succeeds but the account never shows up.
	err := svc.createTokenAccountOnce(context.Background(), mint)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not visible")

	lookups = 0
	visibleAfterSend = true
	err = svc.createTokenAccountOnce(context.Background(), mint)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, lookups, 2)
}

func TestEnsureTokenAccountHonorsContextCancellation(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	svc := newRPCService(t, func(method string) string {
		switch method {
		case "getAccountInfo":
			return `{"context":{"slot":1},"value":null}`
		case "getLatestBlockhash":
			return blockhashResult()
		default:
			return "!node is behind"
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.EnsureTokenAccount(ctx, mint)
	assert.ErrorIs(t, err, context.Canceled)
}
