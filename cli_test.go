package main

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniper/internal/datatypes"
)

func TestParseArgsDefaultsToBuy(t *testing.T) {
	opts, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, cmdBuy, opts.command)

	opts, err = parseArgs([]string{"--token", "So11111111111111111111111111111111111111112"})
	require.NoError(t, err)
	assert.Equal(t, cmdBuy, opts.command)
	assert.Equal(t, "So11111111111111111111111111111111111111112", opts.token)
}

func TestParseArgsCommandAliases(t *testing.T) {
	for _, alias := range []string{"-monitor", "--monitor", "-m", "--m"} {
		opts, err := parseArgs([]string{alias, "-t", "mint"})
		require.NoError(t, err)
		assert.Equal(t, cmdMonitor, opts.command)
		assert.Equal(t, "mint", opts.token)
	}

	for _, alias := range []string{"-snipe", "-s"} {
		opts, err := parseArgs([]string{alias})
		require.NoError(t, err)
		assert.Equal(t, cmdSnipe, opts.command)
	}

	for _, alias := range []string{"-log-pools", "-lp"} {
		opts, err := parseArgs([]string{alias})
		require.NoError(t, err)
		assert.Equal(t, cmdLogPools, opts.command)
	}
}

func TestParseArgsCopyTakesWallet(t *testing.T) {
	opts, err := parseArgs([]string{"-c", "SomeWalletAddress"})
	require.NoError(t, err)
	assert.Equal(t, cmdCopy, opts.command)
	assert.Equal(t, "SomeWalletAddress", opts.wallet)

	_, err = parseArgs([]string{"-c"})
	assert.Error(t, err)
}

func TestParseArgsTokenRequiresValue(t *testing.T) {
	_, err := parseArgs([]string{"-t"})
	assert.Error(t, err)
}

func TestParseArgsFlagOrderIrrelevant(t *testing.T) {
	a, err := parseArgs([]string{"-s", "-t", "mint"})
	require.NoError(t, err)
	b, err2 := parseArgs([]string{"-t", "mint", "-s"})
	require.NoError(t, err2)
	assert.Equal(t, a, b)
}

func TestParseArgsKeepsExtraParams(t *testing.T) {
	opts, err := parseArgs([]string{"-lp", "50", "691200"})
	require.NoError(t, err)
	assert.Equal(t, cmdLogPools, opts.command)
	assert.Equal(t, []string{"50", "691200"}, opts.params)
}

func TestParseTokenAcceptsPositionalMint(t *testing.T) {
	wsol := solana.WrappedSol.String()

	token, err := parseToken(cliOptions{params: []string{wsol}})
	require.NoError(t, err)
	assert.Equal(t, solana.WrappedSol, token)

	// The flag wins over a positional.
	token, err = parseToken(cliOptions{token: wsol, params: []string{"ignored"}})
	require.NoError(t, err)
	assert.Equal(t, solana.WrappedSol, token)

	_, err = parseToken(cliOptions{})
	assert.Error(t, err)

	_, err = parseToken(cliOptions{token: "not-a-mint"})
	assert.Error(t, err)
}

func TestResolveBuyAmount(t *testing.T) {
	cfg := datatypes.DefaultConfig()

	amount, err := resolveBuyAmount(cfg, func() (string, error) { return " 0.123456789 ", nil })
	require.NoError(t, err)
	assert.Equal(t, 0.12346, amount)

	// Empty and non-positive input keep the configured default.
	amount, err = resolveBuyAmount(cfg, func() (string, error) { return "", nil })
	require.NoError(t, err)
	assert.Equal(t, cfg.TokenAAmount, amount)

	amount, err = resolveBuyAmount(cfg, func() (string, error) { return "-1", nil })
	require.NoError(t, err)
	assert.Equal(t, cfg.TokenAAmount, amount)

	_, err = resolveBuyAmount(cfg, func() (string, error) { return "abc", nil })
	assert.Error(t, err)
}

func TestResolveBuyAmountSnipeSkipsPrompt(t *testing.T) {
	cfg := datatypes.DefaultConfig()
	cfg.SnipeMode = true

	prompted := false
	amount, err := resolveBuyAmount(cfg, func() (string, error) {
		prompted = true
		return "1.0", nil
	})
	require.NoError(t, err)
	assert.False(t, prompted)
	assert.Equal(t, cfg.TokenAAmount, amount)
}

func TestLogPoolsWindow(t *testing.T) {
	minDiff, maxDiff, err := logPoolsWindow(nil)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Second, minDiff)
	assert.Equal(t, 8*24*time.Hour, maxDiff)

	minDiff, maxDiff, err = logPoolsWindow([]string{"60", "7200"})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, minDiff)
	assert.Equal(t, 2*time.Hour, maxDiff)

	_, _, err = logPoolsWindow([]string{"abc"})
	assert.Error(t, err)
}
