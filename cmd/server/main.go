package main

import (
	"log"

	"github.com/Swathi-CG04/collaborative-canvas/internal/config"
	"github.com/Swathi-CG04/collaborative-canvas/internal/server"
)

func main() {
	cfg := config.Load()

	srv := server.New(cfg)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
