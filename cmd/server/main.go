package main

import (
	"context"
	"log"

	"ipcr/internal/app/server"
	"ipcr/internal/platform/config"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("IPCR server listening on %s", cfg.Addr)
	if err := app.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
