// Command kittymc runs a from-scratch Minecraft 1.12.2 (protocol 340)
// server. There are no flags and no config file: the listen address is
// fixed, and the only external input is KITTYMC_LOG_LEVEL.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kittymc-go/kittymc/pkg/server"
)

const worldDir = "world"

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	})).With("component", "kittymc")

	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		log.Error("could not create world directory", "error", err)
		os.Exit(1)
	}

	srv := server.New(worldDir, time.Now().UnixNano(), log)
	if err := srv.Start(); err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	log.Info("server started", "addr", server.Address)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	log.Info("shutting down")
	go srv.Stop()

	select {
	case <-sigCh:
		log.Warn("second signal received, exiting immediately")
		os.Exit(1)
	case <-time.After(5 * time.Second):
	}
}

func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("KITTYMC_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
