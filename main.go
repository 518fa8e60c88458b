package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"datalens/internal/config"
	"datalens/internal/container"
	"datalens/ui"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go appContainer.Sessions.RunJanitor(ctx, appConfig.Server.SessionTTL, time.Minute)

	server := ui.NewServer(appContainer.Datasets, appContainer.SSEHub, ui.Options{
		GinMode:        appConfig.Server.GinMode,
		MaxUploadBytes: appConfig.Server.MaxUploadBytes,
		ReadTimeout:    appConfig.Server.ReadTimeout,
		WriteTimeout:   appConfig.Server.WriteTimeout,
	}, appContainer.Logger)

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		appContainer.Logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}
