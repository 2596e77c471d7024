package utils

import (
	"fmt"
	"math"
	"os"
	"time"
)

// ANSI colors used by the console interface.
const (
	colorReset = "\x1b[0m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
)

// LoadingSymbols are cycled by the monitor interface while it polls.
var LoadingSymbols = []string{"▛", "▜", "▟", "▙"}

// Helper function to parse string to float64
func ParseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}

// Helper function to get environment variable with a default value
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// ClearConsole resets the terminal before the interface redraws.
func ClearConsole() {
	fmt.Print("\x1b[2J\x1b[H")
}

// RoundAmount rounds a SOL amount to five decimal places, the precision
// used when echoing buy amounts back to the user.
func RoundAmount(v float64) float64 {
	return math.Round(v*100000) / 100000
}

// FormatPercentage renders a percent change with two decimals and an
// explicit sign.
func FormatPercentage(pct float64) string {
	return fmt.Sprintf("%+.2f%%", pct)
}

// FormatColoredPercentage renders a percent change in green for gains
// and red for losses.
func FormatColoredPercentage(pct float64) string {
	color := colorGreen
	if pct < 0 {
		color = colorRed
	}
	return color + FormatPercentage(pct) + colorReset
}

// FormatTimestamp renders a unix-millisecond timestamp for log output.
func FormatTimestamp(ms int64) string {
	if ms == 0 {
		return "not scheduled"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05.000")
}

// SolscanTxURL returns the explorer link for a transaction signature.
func SolscanTxURL(signature string) string {
	return "https://solscan.io/tx/" + signature
}

// SolscanTokenURL returns the explorer link for a token mint.
func SolscanTokenURL(mint string) string {
	return "https://solscan.io/token/" + mint
}

// DexscreenerURL returns the chart link for a token mint.
func DexscreenerURL(mint string) string {
	return "https://dexscreener.com/solana/" + mint
}
