// memoryd is the persistent memory engine's server process: it connects
// to Postgres, wires every component (Store, MemoryOperations,
// GraphService, Retrieval, ConsolidationEngine), and serves the MCP
// JSON-RPC dispatcher over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/joho/godotenv"

	"github.com/callin2/agent-memory-sub001/pkg/config"
	"github.com/callin2/agent-memory-sub001/pkg/consolidation"
	"github.com/callin2/agent-memory-sub001/pkg/database"
	"github.com/callin2/agent-memory-sub001/pkg/embedding"
	"github.com/callin2/agent-memory-sub001/pkg/events"
	"github.com/callin2/agent-memory-sub001/pkg/graph"
	"github.com/callin2/agent-memory-sub001/pkg/identity"
	"github.com/callin2/agent-memory-sub001/pkg/llmsvc"
	"github.com/callin2/agent-memory-sub001/pkg/mcpserver"
	"github.com/callin2/agent-memory-sub001/pkg/memory"
	"github.com/callin2/agent-memory-sub001/pkg/retrieval"
	"github.com/callin2/agent-memory-sub001/pkg/store"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	serverName := getEnv("MCP_SERVER_NAME", "agent-memory")

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	log.Println("Configuration initialized")

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbConfig.StatementTimeout = cfg.Dispatcher.StatementTimeout
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("Connected to PostgreSQL database")

	st := store.New(dbClient)
	publisher := events.NewPublisher()

	embedSvc, err := embedding.New(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to build embedding service: %v", err)
	}
	embedPool := embedding.NewPool(embedSvc, cfg.Embedding)
	defer embedPool.Stop()

	llm, err := llmsvc.New(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to build LLM service: %v", err)
	}

	idp, err := identity.New(cfg.Identity)
	if err != nil {
		log.Fatalf("Failed to build identity provider: %v", err)
	}

	memOps := memory.New(st, publisher, embedPool)
	graphSvc := graph.New(st, publisher)
	retrieveSvc := retrieval.New(st, embedSvc)
	consolEngine := consolidation.New(st, publisher, llm, embedSvc, cfg.Consolidation)
	scheduler := consolidation.NewScheduler(consolEngine, cfg.Consolidation)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start consolidation scheduler: %v", err)
	}
	defer scheduler.Stop()

	dispatcher := mcpserver.New(idp, serverName)
	dispatcher.SetMemoryOperations(memOps)
	dispatcher.SetGraphService(graphSvc)
	dispatcher.SetRetrieval(retrieveSvc)
	dispatcher.SetConsolidationEngine(consolEngine)
	dispatcher.SetStore(st)
	dispatcher.SetDatabase(dbClient)
	dispatcher.SetEmbeddingPool(embedPool)
	dispatcher.SetScheduler(scheduler)
	dispatcher.SetRequestDeadline(cfg.Dispatcher.RequestDeadline)
	if err := dispatcher.ValidateWiring(); err != nil {
		log.Fatalf("MCP dispatcher wiring incomplete: %v", err)
	}

	e := echo.New()
	dispatcher.RegisterRoutes(e)

	httpServer := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("MCP server listening on :%s", httpPort)
		log.Printf("Health check available at http://localhost:%s/health", httpPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during HTTP shutdown: %v", err)
	}
}
