package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"manaforge/internal/config"
	"manaforge/internal/persist"
	"manaforge/internal/server"
	"manaforge/internal/session"
	"manaforge/internal/telemetry"
)

// Development entrypoint: memory-backed persistence, default balance,
// no config file. The durable server lives in cmd/server.
func main() {
	logger := log.Default()
	cfg := config.Default()
	cfg.Server.Addr = ":42069"
	cfg.ApplyEnv()

	svc := persist.NewMemoryService(persist.MemoryOptions{
		AscensionThreshold: cfg.Engine.AscensionThreshold,
	})
	events := telemetry.NewMemoryRepository()
	sessions := session.NewManager(session.ManagerOptions{
		Service: svc,
		Config:  cfg,
		Logger:  logger,
		Events:  events,
	})

	handler, err := server.NewHandler(&server.App{
		Sessions: sessions,
		Service:  svc,
		Events:   events,
		Config:   cfg,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal(err)
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	go func() {
		logger.Printf("manaforge dev server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	sessions.Close(ctx)
}
