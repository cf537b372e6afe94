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

func main() {
	logger := log.Default()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	svc, err := openService(cfg)
	if err != nil {
		logger.Fatalf("open persistence: %v", err)
	}
	defer svc.Close()

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
		logger.Fatalf("build server: %v", err)
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
	go func() {
		logger.Printf("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Print("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	sessions.Close(ctx)
}

func loadConfig() (*config.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "manaforge.yml"
	}
	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func openService(cfg *config.Config) (persist.Service, error) {
	switch cfg.Database.Dialect {
	case "memory":
		return persist.NewMemoryService(persist.MemoryOptions{
			AscensionThreshold: cfg.Engine.AscensionThreshold,
		}), nil
	case "postgres":
		return persist.OpenSQL(persist.SQLConfig{
			Dialect:            persist.DialectPostgres,
			PostgresDSN:        cfg.Database.PostgresDSN,
			AscensionThreshold: cfg.Engine.AscensionThreshold,
		})
	default:
		return persist.OpenSQL(persist.SQLConfig{
			Dialect:            persist.DialectSQLite,
			SQLitePath:         cfg.Database.SQLitePath,
			AscensionThreshold: cfg.Engine.AscensionThreshold,
		})
	}
}
