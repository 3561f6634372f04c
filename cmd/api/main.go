package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"stockbuddy-backend/internal/bootstrap"
	"stockbuddy-backend/internal/config"
)

func main() {
	cfg := config.Load()
	app := bootstrap.New(cfg)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go app.Sweeper.Run(ctx)

	addr := bootstrap.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
