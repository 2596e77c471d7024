// Main entry point for the pool sniper bot
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sniper/internal/datatypes"
	"sniper/internal/keyboard"
	"sniper/internal/utils"
	"sniper/pkg/logger"
	"sniper/service/monitor"
	"sniper/service/pool"
	"sniper/service/raydium"
	"sniper/service/scanner"
	solanaService "sniper/service/solana"
	"sniper/service/wallet"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	rpcURL := utils.GetEnv("RPC_URL", "")
	wsURL := utils.GetEnv("WS_URL", "")
	privateKeyStr := utils.GetEnv("WALLET_PRIVATE_KEY", "")
	if rpcURL == "" || privateKeyStr == "" {
		log.Fatal("Missing required environment variables: RPC_URL, WALLET_PRIVATE_KEY")
	}
	if wsURL == "" {
		wsURL = strings.Replace(rpcURL, "http", "ws", 1)
	}

	zlog, err := logger.New("activity.log")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		zlog.Fatal("invalid arguments", zap.Error(err))
	}

	privateKey, err := solana.PrivateKeyFromBase58(privateKeyStr)
	if err != nil {
		zlog.Fatal("invalid private key", zap.Error(err))
	}

	cfg := datatypes.DefaultConfig()
	sellCfg := datatypes.DefaultSellConfig()

	client := rpc.New(rpcURL)
	raydiumSvc := raydium.NewService(client, wsURL, privateKey, zlog)
	solSvc := solanaService.NewService(client, privateKey, zlog)
	poolSvc := pool.NewService(raydiumSvc, solSvc, zlog)

	ctx := context.Background()

	if balance, err := solSvc.CheckSolBalance(ctx, raydiumSvc.Owner()); err != nil {
		zlog.Warn("failed to fetch SOL balance", zap.Error(err))
	} else {
		zlog.Info("wallet loaded",
			zap.String("publicKey", raydiumSvc.Owner().String()),
			zap.Float64("solBalance", balance),
		)
	}

	switch opts.command {
	case cmdLogPools:
		err = runLogPools(ctx, raydiumSvc, opts, cfg, zlog)
	case cmdMonitor:
		err = runMonitor(ctx, raydiumSvc, poolSvc, opts, cfg, sellCfg, zlog)
	case cmdSnipe:
		cfg.ShowInterface = false
		cfg.CreateAccount = true
		cfg.SnipeMode = true
		err = runBuy(ctx, raydiumSvc, poolSvc, opts, cfg, sellCfg, zlog)
	case cmdCopy:
		cfg.ShowInterface = false
		cfg.CreateAccount = false
		err = runCopy(ctx, raydiumSvc, solSvc, opts, cfg, sellCfg, zlog)
	default:
		err = runBuy(ctx, raydiumSvc, poolSvc, opts, cfg, sellCfg, zlog)
	}
	if err != nil {
		zlog.Fatal("application error", zap.Error(err))
	}
}

// parseToken resolves the token mint from the --token flag, falling
// back to the first positional argument.
func parseToken(opts cliOptions) (solana.PublicKey, error) {
	addr := opts.token
	if addr == "" && len(opts.params) > 0 {
		addr = opts.params[0]
	}
	if addr == "" {
		return solana.PublicKey{}, fmt.Errorf("no token address given, use --token <mint>")
	}
	token, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid token address %q: %v", addr, err)
	}
	return token, nil
}

// resolveBuyAmount returns the entry amount for a buy session. Snipe
// sessions are non-interactive and keep the configured amount; the
// manual flow prompts, with empty or non-positive input keeping the
// default.
func resolveBuyAmount(cfg datatypes.Config, readInput func() (string, error)) (float64, error) {
	if cfg.SnipeMode {
		return cfg.TokenAAmount, nil
	}

	input, err := readInput()
	if err != nil {
		return 0, fmt.Errorf("failed to read amount: %v", err)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return cfg.TokenAAmount, nil
	}

	amount, err := utils.ParseFloat(input)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %v", input, err)
	}
	if amount <= 0 {
		return cfg.TokenAAmount, nil
	}
	return utils.RoundAmount(amount), nil
}

// runBuy is the manual buy flow, also used by snipe mode with the
// interface disabled and account creation enabled.
func runBuy(ctx context.Context, raydiumSvc *raydium.Service, poolSvc *pool.Service, opts cliOptions, cfg datatypes.Config, sellCfg datatypes.SellConfig, zlog *zap.Logger) error {
	token, err := parseToken(opts)
	if err != nil {
		return err
	}

	amount, err := resolveBuyAmount(cfg, func() (string, error) {
		utils.ClearConsole()
		fmt.Print("Enter amount(SOL): ")
		defer fmt.Println()
		return keyboard.ReadHidden()
	})
	if err != nil {
		return err
	}
	cfg.TokenAAmount = amount
	zlog.Info("buy amount set", zap.Float64("amount", cfg.TokenAAmount))

	keys, err := poolSvc.Acquire(ctx, token, cfg.CreateAccount)
	if err != nil {
		return err
	}

	mon := monitor.NewService(raydiumSvc, keys, token, cfg, sellCfg, zlog)
	if cfg.ShowInterface {
		keyc, restore, err := keyboard.Listen()
		if err != nil {
			return fmt.Errorf("failed to capture keyboard: %v", err)
		}
		defer restore()
		mon.SetKeyInput(keyc, func() {
			restore()
			os.Exit(0)
		})
	}
	return mon.ExecuteSwap(ctx)
}

// runMonitor is the dip-buy flow.
func runMonitor(ctx context.Context, raydiumSvc *raydium.Service, poolSvc *pool.Service, opts cliOptions, cfg datatypes.Config, sellCfg datatypes.SellConfig, zlog *zap.Logger) error {
	token, err := parseToken(opts)
	if err != nil {
		return err
	}
	zlog.Info("monitoring token", zap.String("token", token.String()))

	keys, err := poolSvc.Acquire(ctx, token, cfg.CreateAccount)
	if err != nil {
		return err
	}

	mon := monitor.NewService(raydiumSvc, keys, token, cfg, sellCfg, zlog)
	if cfg.ShowInterface {
		keyc, restore, err := keyboard.Listen()
		if err != nil {
			return fmt.Errorf("failed to capture keyboard: %v", err)
		}
		defer restore()
		mon.SetKeyInput(keyc, func() {
			restore()
			os.Exit(0)
		})
	}
	return mon.MonitorAndTrade(ctx)
}

// runCopy follows another wallet's token accounts and copies its
// trades.
func runCopy(ctx context.Context, raydiumSvc *raydium.Service, solSvc *solanaService.Service, opts cliOptions, cfg datatypes.Config, sellCfg datatypes.SellConfig, zlog *zap.Logger) error {
	watched, err := solana.PublicKeyFromBase58(opts.wallet)
	if err != nil {
		return fmt.Errorf("invalid wallet address %q: %v", opts.wallet, err)
	}

	initial, err := solSvc.TokensOwnedBy(ctx, watched)
	if err != nil {
		return err
	}
	zlog.Info("snapshotted watched wallet",
		zap.String("wallet", watched.String()),
		zap.Int("positions", len(initial)),
	)

	updates, err := raydiumSvc.SubscribeTokenAccounts(ctx, watched)
	if err != nil {
		return err
	}
	return wallet.NewService(raydiumSvc, watched, initial, cfg, sellCfg, zlog).Run(ctx, updates)
}

// Stock open-time window for the pool logger: pools opening inside a
// minute are too late to act on, pools beyond a week are noise.
const (
	defaultMinOpenOffset = 50 * time.Second
	defaultMaxOpenOffset = 8 * 24 * time.Hour
)

// logPoolsWindow derives the open-time window from the positional
// params, in seconds.
func logPoolsWindow(params []string) (time.Duration, time.Duration, error) {
	minDiff, maxDiff := defaultMinOpenOffset, defaultMaxOpenOffset
	if len(params) > 0 {
		v, err := utils.ParseFloat(params[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid min open offset %q: %v", params[0], err)
		}
		minDiff = time.Duration(v * float64(time.Second))
	}
	if len(params) > 1 {
		v, err := utils.ParseFloat(params[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid max open offset %q: %v", params[1], err)
		}
		maxDiff = time.Duration(v * float64(time.Second))
	}
	return minDiff, maxDiff, nil
}

// runLogPools streams upcoming pool openings into the liquidity file.
func runLogPools(ctx context.Context, raydiumSvc *raydium.Service, opts cliOptions, cfg datatypes.Config, zlog *zap.Logger) error {
	minDiff, maxDiff, err := logPoolsWindow(opts.params)
	if err != nil {
		return err
	}

	scan, err := scanner.NewService(cfg.LiquidityFile, minDiff, maxDiff, zlog)
	if err != nil {
		return err
	}

	updates, err := raydiumSvc.SubscribeNewPools(ctx)
	if err != nil {
		return err
	}
	return scan.Run(ctx, updates)
}
