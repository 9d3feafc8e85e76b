package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wfunc/flowerzone/config"
	"github.com/wfunc/flowerzone/logger"
	"github.com/wfunc/flowerzone/persistence"
	"github.com/wfunc/flowerzone/server"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init("info")
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	db, err := persistence.Open(cfg.Database)
	switch {
	case errors.Is(err, persistence.ErrDisabled):
		logger.Log.Info("Round history disabled.")
		db = nil
	case err != nil:
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	default:
		logger.Log.Infof("Database connection successful (%s).", cfg.Database.Driver)
		defer db.Close()
	}

	gameServer, err := server.NewGameServer(cfg, db)
	if err != nil {
		logger.Log.Fatalf("Failed to create game server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- gameServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Log.Infof("Received %s, shutting down.", sig)
	case err := <-errCh:
		if err != nil {
			logger.Log.Errorf("Server stopped: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	gameServer.Shutdown(ctx)
}
