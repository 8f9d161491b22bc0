/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vesting coordinator server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load optional .env, parse command-line flags
  2. Initialize SQLite store (registry + payout journal)
  3. Build the ledger: in-process, or a read-only Solana view
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --listen          Listen address (default: :8080)
  --db              SQLite database path (default: vesting.db,
                    ":memory:" supported)
  --verbose         Debug logging
  --ledger          "memory" (default) or "solana"
  --solana-rpc      RPC endpoint (solana mode)
  --solana-program  Deployed program id, base58 (solana mode)

LEDGER MODES:
  memory: full lifecycle, scenarios available. State is process-local.
  solana: read-only view of the deployed program; mutating endpoints
          answer 501 because the coordinator holds no signing key.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # In-process ledger with file database
  ./server --db=./data/vesting.db

  # Read-only view of the deployed program
  ./server --ledger=solana \
      --solana-rpc=https://api.mainnet-beta.solana.com \
      --solana-program=Vest1111111111111111111111111111111111111111

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"

	"github.com/warp/vesting-engine/api"
	"github.com/warp/vesting-engine/ledger/memory"
	solanaledger "github.com/warp/vesting-engine/ledger/solana"
	"github.com/warp/vesting-engine/logger"
	"github.com/warp/vesting-engine/store/sqlite"
)

func main() {
	// A missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	listen := pflag.String("listen", ":8080", "listen address")
	dbPath := pflag.String("db", "vesting.db", "SQLite database path (\":memory:\" supported)")
	verbose := pflag.Bool("verbose", false, "debug logging")
	ledgerKind := pflag.String("ledger", "memory", "ledger backend: memory or solana")
	solanaRPC := pflag.String("solana-rpc", "https://api.devnet.solana.com", "Solana RPC endpoint")
	solanaProgram := pflag.String("solana-program", "", "deployed vesting program id (base58)")
	pflag.Parse()

	log := logger.New(*verbose)
	clock := clockwork.NewRealClock()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Error("failed to initialize database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var handler *api.Handler
	switch *ledgerKind {
	case "memory":
		l := memory.New(memory.WithClock(clock), memory.WithLogger(log))
		handler = api.NewHandler(l, store, clock, log)
	case "solana":
		programID, err := solana.PublicKeyFromBase58(*solanaProgram)
		if err != nil {
			log.Error("invalid --solana-program", "error", err)
			os.Exit(1)
		}
		client := solanaledger.New(*solanaRPC, programID, solanaledger.WithLogger(log))
		handler = api.NewReadOnlyHandler(client, store, clock, log, "solana")
	default:
		log.Error("unknown --ledger", "ledger", *ledgerKind)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         *listen,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "listen", *listen, "ledger", *ledgerKind, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
