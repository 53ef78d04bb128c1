/**
 * @description
 * This is the main entry point for the ledger-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the field encryption codec, external market data clients, message
 * brokers, repositories, the core application service, and the HTTP server. It
 * wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client backing quote rate limiting.
 * - internal/api, internal/app, internal/audit, internal/config, internal/crypto,
 *   internal/marketdata, internal/store: Internal packages for the service.
 * - pkg/quoteclient: Client for the upstream market data API.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/finbook/ledger-service/internal/api"
	"github.com/finbook/ledger-service/internal/app"
	"github.com/finbook/ledger-service/internal/audit"
	"github.com/finbook/ledger-service/internal/config"
	"github.com/finbook/ledger-service/internal/crypto"
	"github.com/finbook/ledger-service/internal/marketdata"
	"github.com/finbook/ledger-service/internal/store"
	"github.com/finbook/ledger-service/pkg/quoteclient"
	"github.com/finbook/ledger-service/pkg/rabbitmq"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"jwt secret must be configured\" env=JWT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting ledger-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// The field codec protects sensitive transaction columns at rest. Boot must
	// fail when the key is absent so plaintext never reaches the database.
	codec, err := crypto.NewCodec(cfg.FieldEncryptionKey)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"field encryption key invalid\" env=FIELD_ENCRYPTION_KEY err=%v", err)
	}

	// Initialize the RabbitMQ producer for audit event fan-out. A broker outage
	// must not prevent the ledger from booting, so fall back to a noop publisher.
	var auditPublisher rabbitmq.Publisher
	rabbitProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.AuditEventExchange)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		auditPublisher = &rabbitmq.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		auditPublisher = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Redis backs the market data rate limiter. Missing or unreachable Redis
	// degrades to unlimited quote lookups rather than failing boot.
	var redisClient *redis.Client
	if cfg.QuoteRateLimitPerMinute > 0 {
		if cfg.RedisURL == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; quote rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; quote rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; quote rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Audit entries are persisted through the repository and fanned out to
	// downstream consumers via the producer.
	auditor := audit.NewRecorder(repository, auditPublisher)

	// Initialize the core application service with its dependencies.
	ledgerService := app.NewService(repository, codec, auditor)

	// Initialize the market data layer: upstream client wrapped in the caching
	// and request coalescing layer.
	quoteFetcher := quoteclient.NewClient(cfg.QuoteAPIBaseURL, cfg.QuoteAPIKey)
	quoteCache := marketdata.NewCache(
		quoteFetcher,
		time.Duration(cfg.QuoteCacheTTLSeconds)*time.Second,
		time.Duration(cfg.QuoteFetchTimeoutSeconds)*time.Second,
	)

	var quoteLimiter *app.RedisQuoteRateLimiter
	if redisClient != nil {
		quoteLimiter = app.NewRedisQuoteRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}

	// Initialize the API handlers and routes.
	ledgerHandlers := api.NewLedgerHandlers(ledgerService)
	marketHandlers := api.NewMarketHandlers(quoteCache, quoteLimiter, cfg.QuoteRateLimitPerMinute)
	router := api.Routes(ledgerHandlers, marketHandlers, cfg.JWTSecret)

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	// Let in-flight audit writes drain before the process exits.
	auditor.Wait()

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
