package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dumbledore/AlbiteRTSP/internal/albite"
)

func main() {
	configPath := flag.String("config", albite.DefaultConfigPath, "path to the yaml or toml config file")
	flag.Parse()

	config, err := albite.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := albite.InitLogger(config)

	server, err := albite.NewServer(config, logger)
	if err != nil {
		slog.Error("Failed to create server", "err", err)
		os.Exit(1)
	}

	// 서버 시작
	if err := server.Start(); err != nil {
		slog.Error("Failed to start server", "err", err)
		os.Exit(1)
	}

	slog.Info("RTSP Server started", "addr", server.Addr())

	// 시그널 수신을 위한 채널 생성
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 시그널 대기
	sig := <-sigChan
	slog.Info("Received signal, shutting down server", "signal", sig)

	// 서버 정지
	server.Stop()
	slog.Info("Server shutdown complete")
}
