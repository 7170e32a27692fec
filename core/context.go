package core

import (
	"context"
	"fmt"
	"os"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/prompt"
	"go.uber.org/zap"
)

// Context keys for executor dependencies
type contextKey string

const (
	loggerKey   contextKey = "logger"
	prompterKey contextKey = "prompter"
)

// WithLogger attaches the structured logger used by executors.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// loggerFrom returns the logger from context, or a no-op logger.
func loggerFrom(ctx context.Context) *zap.Logger {
	logger, _ := ctx.Value(loggerKey).(*zap.Logger)
	return contract.LoggerOrNop(logger)
}

// WithPrompter overrides how questions are asked.
func WithPrompter(ctx context.Context, p contract.Prompter) context.Context {
	return context.WithValue(ctx, prompterKey, p)
}

// prompterFrom returns the prompter from context. Without one, an answers file
// wins over the terminal.
func prompterFrom(ctx context.Context, cfg *contract.Config) (contract.Prompter, error) {
	if p, ok := ctx.Value(prompterKey).(contract.Prompter); ok && p != nil {
		return p, nil
	}
	if cfg.AnswersFile == "" {
		return prompt.NewTerminal(cfg.Accessible), nil
	}
	f, err := os.Open(cfg.AnswersFile)
	if err != nil {
		return nil, fmt.Errorf("open answers file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return prompt.LoadScript(f)
}
