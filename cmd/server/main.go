// Command server runs the leaderboard and benchmark HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlascodesai/snake-ai-arena/internal/api"
	"github.com/atlascodesai/snake-ai-arena/internal/config"
	"github.com/atlascodesai/snake-ai-arena/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		listenAddr = flag.String("listen", "", "listen address (overrides config)")
		dbPath     = flag.String("db", "", "sqlite database path (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		logger.Fatalf("opening database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		logger.Fatalf("migrating database: %v", err)
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(db, cfg).Routes(),
	}

	go func() {
		logger.Printf("listening on %s (db: %s)", cfg.ListenAddr, cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
