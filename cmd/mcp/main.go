package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/dialogue-qa/internal/adapters/mcp"
	"github.com/kirillkom/dialogue-qa/internal/bootstrap"
	"github.com/kirillkom/dialogue-qa/internal/config"
	"github.com/kirillkom/dialogue-qa/internal/observability/logging"
)

const (
	serviceName = "dialogue-mcp"
	version     = "1.0.0"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	// stdout carries the protocol.
	logger := logging.New(os.Stderr, serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialogue, err := bootstrap.NewDialogue(ctx, cfg, logger, bootstrap.Hooks{})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer dialogue.Close()

	logger.Info("mcp_serving_stdio", "session_backend", cfg.SessionBackend)
	if err := server.ServeStdio(mcpadapter.NewServer(dialogue.Service, version)); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
