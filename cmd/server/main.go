/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the activity tracking server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Create the session tracker (resolves the default user)
  4. Wire the reconciler and API handler
  5. Start the HTTP server and the reconciliation scheduler

COMMAND-LINE FLAGS:
  -port             HTTP server port (default: 8080)
  -db               SQLite database path (default: grindstone.db)
                    Use ":memory:" for an in-memory database
  -reconcile-every  Ledger reconciliation sweep interval (default: 1h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the reconciliation scheduler
  4. Close the database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/grindstone.db"

  # Run with in-memory database on a different port
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Background reconciliation
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grindstone/activity-engine/api"
	"github.com/grindstone/activity-engine/store/sqlite"
	"github.com/grindstone/activity-engine/tracker"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "grindstone.db", "SQLite database path")
	reconcileEvery := flag.Duration("reconcile-every", time.Hour, "ledger reconciliation sweep interval (0 disables)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(*dbPath, sqlite.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Session tracker (resolves or creates the default user)
	trk, err := tracker.New(context.Background(), store, tracker.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize tracker", "error", err)
		os.Exit(1)
	}

	rec := tracker.NewReconciler(store,
		tracker.WithReconcilerLogger(logger),
		tracker.ForTracker(trk),
	)

	handler := api.NewHandler(trk, rec, store, logger)
	router := api.NewRouter(handler)

	scheduler := api.NewReconciliationScheduler(rec, trk.UserID(),
		api.WithSchedulerLogger(logger))
	if *reconcileEvery > 0 {
		scheduler.Interval = *reconcileEvery
	} else {
		scheduler.Enabled = false
	}
	scheduler.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	scheduler.Stop()

	logger.Info("server stopped")
}
