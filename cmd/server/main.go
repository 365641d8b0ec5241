/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the compliance engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Parse the program policy (file or defaults)
  4. Construct the engine and API handler
  5. Start the recalculation scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: compliance.db)
             Use ":memory:" for an in-memory database
  -policy    Path to a JSON policy file (default: program defaults)
  -scheduler Enable the periodic recalculation scheduler (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/compliance.db"

  # Run with in-memory database and a custom policy
  ./server -db=":memory:" -policy="./policy.json"

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
	"syscall"
	"time"

	"github.com/zoneline/compliance-engine/api"
	"github.com/zoneline/compliance-engine/compliance"
	"github.com/zoneline/compliance-engine/factory"
	"github.com/zoneline/compliance-engine/program"
	"github.com/zoneline/compliance-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "compliance.db", "SQLite database path")
	policyPath := flag.String("policy", "", "JSON policy file (empty = program defaults)")
	schedulerOn := flag.Bool("scheduler", true, "Enable periodic recalculation")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Policy
	policy, err := loadPolicy(*policyPath)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}

	// Engine and handler
	provider := program.NewStaticProvider()
	engine := compliance.NewEngine(store, provider, policy)
	handler := api.NewHandler(store, engine)

	// Scheduler
	scheduler := api.NewComplianceScheduler(handler)
	scheduler.Enabled = *schedulerOn
	scheduler.Start()
	defer scheduler.Stop()

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
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
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

func loadPolicy(path string) (compliance.Policy, error) {
	if path == "" {
		return compliance.DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return compliance.Policy{}, err
	}
	return factory.NewPolicyFactory().ParsePolicy(string(data))
}
