package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/db"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/middleware"
	"github.com/civicballot/civicballot/monitor"
	"github.com/civicballot/civicballot/router"
)

func main() {
	// .env is optional; flags and real env vars win
	_ = godotenv.Load()

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	driver := "postgres"
	if cfg.DatabaseType == "sqlite" {
		driver = "sqlite"
	}

	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	eng := engine.New(dbConn)

	// Bootstrap administrator account
	if cfg.AdminEmail != "" {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			slog.Error("admin password hashing failed", "error", err)
			os.Exit(1)
		}
		if err := eng.SeedAdmin(context.Background(), cfg.AdminEmail, hash, time.Now()); err != nil {
			slog.Error("admin seeding failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Administrator account ready", "email", cfg.AdminEmail)
	}

	// Anomaly monitor consumes the admission stream in the background
	mon := monitor.New(dbConn, cfg)
	eng.Admissions = mon.Events

	monCtx, stopMonitor := context.WithCancel(context.Background())
	monDone := make(chan struct{})
	go func() {
		mon.Run(monCtx)
		close(monDone)
	}()

	mux := router.NewRouter(eng, cfg)

	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		server.Close()
	}()

	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	// Server is down; drain the monitor before exiting
	stopMonitor()
	<-monDone
}
