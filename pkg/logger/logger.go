// package logger builds the zap logger used across the bot. Output goes
// to both the terminal and a file under logs/.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ensureLogDirectory ensures that the logs directory exists
func ensureLogDirectory() error {
	logsDir := "logs"
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		return os.MkdirAll(logsDir, 0755)
	}
	return nil
}

// New creates a logger that writes human-readable lines to stdout and
// JSON entries to the given file. Relative paths land under logs/.
func New(filePath string) (*zap.Logger, error) {
	if err := ensureLogDirectory(); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %v", err)
	}

	if !filepath.IsAbs(filePath) && !strings.HasPrefix(filePath, "logs/") {
		filePath = filepath.Join("logs", filePath)
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), zapcore.InfoLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), zapcore.DebugLevel),
	)

	return zap.New(core), nil
}
