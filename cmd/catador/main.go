package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/avasquez/catador/internal/app"
	"github.com/avasquez/catador/internal/auth"
	"github.com/avasquez/catador/internal/config"
	"github.com/avasquez/catador/internal/logger"
	"github.com/avasquez/catador/pkg/payments"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("catador %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	appLog := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogHTTP {
		appLog.EnableHTTPLogging()
	}

	// Session password comes from config, auto-generated otherwise
	password := cfg.SessionPassword
	if password == "" {
		password = auth.GeneratePassword()
		appLog.Info("Session password generated", "password", password)
	}
	sessionAuth := auth.New(password)

	gateway := payments.NewHTTPClient(cfg.PaymentsBaseURL, appLog)

	a, err := app.New(appLog, cfg, gateway, sessionAuth)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx, cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
