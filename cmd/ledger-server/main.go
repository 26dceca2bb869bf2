// Package main runs the lending ledger HTTP server on PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger-go/app/httpapi"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell"
	"github.com/AntonStoeckl/lending-ledger-go/app/shared/shell/config"
	"github.com/AntonStoeckl/lending-ledger-go/ledger/postgresengine"
)

const (
	serviceName    = "lending-ledger"
	serviceVersion = "1.0.0"

	defaultAddr         = ":8080"
	defaultOTLPEndpoint = "localhost:4317"
	defaultTokenTTL     = 24 * time.Hour

	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type Config struct {
	Addr                 string
	AdapterType          string
	JWTSecret            string
	ObservabilityEnabled bool
	OTLPEndpoint         string
	LogLevel             slog.Level
	IssueTokenFor        string
	TokenRole            string
	TokenTTL             time.Duration
}

func main() {
	cfg := parseFlags()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT secret is required, set JWT_SECRET or -jwt-secret")
	}

	authenticator, err := httpapi.NewAuthenticator([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("Failed to create authenticator: %v", err)
	}

	if cfg.IssueTokenFor != "" {
		printToken(authenticator, cfg)
		return
	}

	if err := run(cfg, authenticator); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(cfg Config, authenticator *httpapi.Authenticator) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	engineOptions := []postgresengine.Option{postgresengine.WithLogger(logger)}
	handlerObservability := httpapi.Observability{Logger: logger}

	if cfg.ObservabilityEnabled {
		providers, err := config.NewObservabilityConfig(ctx, serviceName, serviceVersion, cfg.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("creating observability providers: %w", err)
		}

		defer func() {
			if shutdownErr := providers.Shutdown(); shutdownErr != nil {
				log.Printf("Error shutting down observability providers: %v", shutdownErr)
			}
		}()

		obs := config.NewLedgerObservability(serviceName)
		engineOptions = append(engineOptions, obs.EngineOptions()...)
		handlerObservability = httpapi.Observability{
			Metrics:          obs.Metrics,
			Tracing:          obs.Tracing,
			ContextualLogger: obs.ContextualLogger,
		}

		log.Printf("Observability enabled, exporting to %s", cfg.OTLPEndpoint)
	}

	connection, err := config.OpenLedger(ctx, cfg.AdapterType, config.ServerPoolSize, engineOptions...)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer connection.Close()

	if err = connection.Ledger.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	handlers, err := httpapi.NewHandlers(connection.Ledger, handlerObservability)
	if err != nil {
		return fmt.Errorf("building handlers: %w", err)
	}

	server, err := httpapi.NewServer(handlers, authenticator, httpapi.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Lending ledger listening on %s (adapter %s)", cfg.Addr, cfg.AdapterType)

		if listenErr := httpServer.ListenAndServe(); !errors.Is(listenErr, http.ErrServerClosed) {
			errChan <- listenErr
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Received shutdown signal, draining connections...")
	case err = <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	log.Printf("Server stopped")

	return nil
}

func printToken(authenticator *httpapi.Authenticator, cfg Config) {
	borrowerID, err := uuid.Parse(cfg.IssueTokenFor)
	if err != nil {
		log.Fatalf("Invalid borrower id '%s': %v", cfg.IssueTokenFor, err)
	}

	token, err := authenticator.IssueToken(shell.Caller{BorrowerID: borrowerID, Role: cfg.TokenRole}, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}

func parseFlags() Config {
	var (
		addr          = flag.String("addr", defaultAddr, "HTTP listen address")
		adapterType   = flag.String("adapter", envOrDefault("ADAPTER_TYPE", config.AdapterPGXPool), "Database adapter: pgx.pool, sql.db or sqlx.db")
		jwtSecret     = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "HS256 secret for verifying tokens")
		observability = flag.Bool("observability-enabled", false, "Enable OpenTelemetry observability")
		otlpEndpoint  = flag.String("otlp-endpoint", defaultOTLPEndpoint, "OTLP gRPC endpoint")
		logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn or error")
		issueTokenFor = flag.String("issue-token-for", "", "Print a token for this borrower id and exit")
		tokenRole     = flag.String("token-role", shell.RoleBorrower, "Role of the issued token: borrower or admin")
		tokenTTL      = flag.Duration("token-ttl", defaultTokenTTL, "Lifetime of the issued token")
	)

	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("Invalid log level '%s': %v", *logLevel, err)
	}

	return Config{
		Addr:                 *addr,
		AdapterType:          *adapterType,
		JWTSecret:            *jwtSecret,
		ObservabilityEnabled: *observability,
		OTLPEndpoint:         *otlpEndpoint,
		LogLevel:             level,
		IssueTokenFor:        *issueTokenFor,
		TokenRole:            *tokenRole,
		TokenTTL:             *tokenTTL,
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
