package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell/config"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine"
)

const (
	serviceName    = "lending-ledger-load-generator"
	serviceVersion = "1.0.0"

	defaultRate          = 30
	defaultInitialBooks  = 200
	defaultMaxCopies     = 5
	defaultBorrowers     = 500
	defaultReturnPercent = 40
	defaultOTLPEndpoint  = "localhost:4317"

	shutdownTimeout = 10 * time.Second
)

type Config struct {
	Rate                 int
	InitialBooks         int
	MaxCopies            int
	Borrowers            int
	ReturnPercent        int
	AdapterType          string
	ObservabilityEnabled bool
	OTLPEndpoint         string
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var (
		engineOptions []postgresengine.Option
		obs           *config.LedgerObservability
	)

	if cfg.ObservabilityEnabled {
		providers, err := config.NewObservabilityConfig(ctx, serviceName, serviceVersion, cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("Failed to create observability providers: %v", err)
		}

		defer func() {
			if shutdownErr := providers.Shutdown(); shutdownErr != nil {
				log.Printf("Error shutting down observability providers: %v", shutdownErr)
			}
		}()

		ledgerObservability := config.NewLedgerObservability(serviceName)
		obs = &ledgerObservability
		engineOptions = append(engineOptions, ledgerObservability.EngineOptions()...)

		log.Printf("Observability enabled, exporting to %s", cfg.OTLPEndpoint)
	}

	connection, err := config.OpenLedger(ctx, cfg.AdapterType, config.ServerPoolSize, engineOptions...)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer connection.Close()

	if err = connection.Ledger.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	loadGen := NewLoadGenerator(connection.Ledger, cfg, obs)

	if err = loadGen.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed books: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if startErr := loadGen.Start(ctx); startErr != nil {
			errChan <- fmt.Errorf("load generator failed: %w", startErr)
		}
	}()

	log.Printf("Lending ledger load generator started")
	log.Printf("Configuration: rate=%d req/s, initial_books=%d, borrowers=%d, return_percent=%d",
		cfg.Rate, cfg.InitialBooks, cfg.Borrowers, cfg.ReturnPercent)
	log.Printf("Press Ctrl+C to stop...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err = <-errChan:
		log.Printf("Error occurred: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = loadGen.Stop(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	cancel()

	if err = loadGen.Verify(shutdownCtx); err != nil {
		log.Printf("Invariant check failed: %v", err)
	}

	log.Printf("Load generator stopped")
}

func parseFlags() Config {
	var (
		rate          = flag.Int("rate", defaultRate, "Requests per second")
		initialBooks  = flag.Int("initial-books", defaultInitialBooks, "Number of books to add initially")
		maxCopies     = flag.Int("max-copies", defaultMaxCopies, "Maximum copies per seeded book")
		borrowers     = flag.Int("borrowers", defaultBorrowers, "Number of simulated borrowers")
		returnPercent = flag.Int("return-percent", defaultReturnPercent, "Share of requests that return a held book, 0-100")
		adapterType   = flag.String("adapter", envOrDefault("ADAPTER_TYPE", config.AdapterPGXPool), "Database adapter: pgx.pool, sql.db or sqlx.db")
		observability = flag.Bool("observability-enabled", false, "Enable OpenTelemetry observability")
		otlpEndpoint  = flag.String("otlp-endpoint", defaultOTLPEndpoint, "OTLP gRPC endpoint")
	)

	flag.Parse()

	cfg := Config{
		Rate:                 *rate,
		InitialBooks:         *initialBooks,
		MaxCopies:            *maxCopies,
		Borrowers:            *borrowers,
		ReturnPercent:        *returnPercent,
		AdapterType:          *adapterType,
		ObservabilityEnabled: *observability,
		OTLPEndpoint:         *otlpEndpoint,
	}

	if err := cfg.validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func (c Config) validate() error {
	switch {
	case c.Rate <= 0:
		return fmt.Errorf("rate must be positive, got %d", c.Rate)
	case c.InitialBooks <= 0:
		return fmt.Errorf("initial books must be positive, got %d", c.InitialBooks)
	case c.MaxCopies <= 0:
		return fmt.Errorf("max copies must be positive, got %d", c.MaxCopies)
	case c.Borrowers <= 0:
		return fmt.Errorf("borrowers must be positive, got %d", c.Borrowers)
	case c.ReturnPercent < 0 || c.ReturnPercent > 100:
		return fmt.Errorf("return percent %d out of range [0, 100]", c.ReturnPercent)
	default:
		return nil
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
