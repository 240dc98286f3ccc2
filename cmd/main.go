package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/yungbote/zahnovia-backend/internal/app"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

func main() {
	addr := pflag.String("addr", "", "listen address (overrides config, e.g. :8080)")
	configPath := pflag.String("config", "", "path to a YAML config file")
	pflag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Loading configuration...")
	cfg, err := app.LoadConfig(log, *configPath)
	if err != nil {
		log.Fatal("Config load failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Fatal("App init failed", "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()

	if err := a.Run(ctx, *addr); err != nil {
		log.Error("Server stopped with error", "error", err)
		return
	}
	log.Info("Server stopped")
}
