package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/muratoffalex/emotebot/internal/app"
)

var (
	version   string
	buildTime string
)

func main() {
	fmt.Printf("Starting application version: %s (built at: %s)\n", version, buildTime)
	application, err := app.New()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		application.Logger.WithError(err).Fatal("Application failed")
	}
}
