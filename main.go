// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"votesecure/blockchain"
	"votesecure/cliparse"
	"votesecure/db"
	"votesecure/handlers"
	"votesecure/middleware"
	"votesecure/router"
	"votesecure/ws"
)

func main() {
	// Local development reads .env; production sets real env vars
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	stamper := blockchain.NewHashStamper()
	hub := ws.NewHub(cfg.FrontendURL)

	// Background queue retry, when configured
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.RetryInterval > 0 {
		go handlers.StartRetryLoop(ctx, dbConn, stamper, time.Duration(cfg.RetryInterval)*time.Second)
		slog.Info("Queue retry loop enabled", "interval_s", cfg.RetryInterval)
	}

	// Create router
	mux := router.NewRouter(dbConn, cfg, stamper, hub)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(cfg.FrontendURL, mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		cancel()
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
