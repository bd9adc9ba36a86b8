package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/gamevault/walletd/internal/config"
	"github.com/gamevault/walletd/internal/container"
)

func main() {
	// .env опционален: в проде конфигурация приходит из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app := container.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := app.Initialize(ctx); err != nil {
		cancel()
		log.Fatalf("failed to initialize application: %v", err)
	}
	cancel()

	if err := app.Run(); err != nil {
		app.Logger().Error("Server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		app.Logger().Error("Shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
