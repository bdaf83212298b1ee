/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Measure Engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Load persisted units into the registry
  4. Optionally preload catalogs
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: measure.db)
            Use ":memory:" for an in-memory database
  -preload  Comma-separated catalog ids to register at startup
            (e.g. "metric-weight,temperature")

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database, metric units preloaded
  ./server -db="./data/measure.db" -preload="metric-weight,metric-volume,metric-length"

  # Run with in-memory database
  ./server -db=":memory:" -preload="temperature"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/warp/measure-engine/api"
	"github.com/warp/measure-engine/measure"
	"github.com/warp/measure-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "measure.db", "SQLite database path")
	preload := flag.String("preload", "", "comma-separated catalog ids to register at startup")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Load persisted units into the registry
	registry, err := store.LoadRegistry(context.Background())
	if err != nil {
		log.Fatalf("Failed to load unit registry: %v", err)
	}

	resolver := measure.NewResolver(registry, store)
	handler := api.NewHandler(registry, resolver, store)

	// Preload requested catalogs
	if *preload != "" {
		for _, id := range strings.Split(*preload, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if err := handler.PreloadCatalog(context.Background(), id); err != nil {
				log.Fatalf("Failed to preload catalog %q: %v", id, err)
			}
			log.Printf("Preloaded catalog %q", id)
		}
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📐 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
