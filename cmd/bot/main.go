package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/pedroscocco/linux-sac-bot/internal/config"
	"github.com/pedroscocco/linux-sac-bot/internal/gateway"
	"github.com/pedroscocco/linux-sac-bot/internal/grammar"
	"github.com/pedroscocco/linux-sac-bot/internal/metrics"
	"github.com/pedroscocco/linux-sac-bot/internal/session"
	"github.com/pedroscocco/linux-sac-bot/internal/store"
	"github.com/pedroscocco/linux-sac-bot/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	if err := initMeter(); err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}

	// The grammar is validated here, before any traffic: a transition into
	// a state with no content must reject the process, not a user session.
	menu, err := loadGrammar(cfg.GrammarPath)
	if err != nil {
		log.Fatalf("Invalid menu grammar: %v", err)
	}

	conversationStore, storePing, cleanup, err := buildStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer cleanup()

	conversationMetrics, err := metrics.NewConversationMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	messenger := transport.NewMessenger(cfg.GraphAPIURL, cfg.PageAccessToken)
	sessionService := session.NewService(conversationStore, menu, messenger, conversationMetrics)
	gatewayHandler := gateway.NewHandler(sessionService, messenger, conversationMetrics, cfg.VerifyToken)

	router := gin.Default()
	router.Use(structuredLoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		if err := storePing(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/webhook", gatewayHandler.Verify)
	router.POST("/webhook", gateway.SignatureMiddleware(cfg.AppSecret), gatewayHandler.Receive)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting linux-sac-bot on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// loadGrammar builds the menu from a YAML file when configured, or the
// built-in lab menu otherwise.
func loadGrammar(path string) (*grammar.Grammar, error) {
	if path == "" {
		return grammar.New(grammar.Default())
	}
	return grammar.Load(path)
}

// buildStore connects to PostgreSQL when DATABASE_URL is set, with a retry
// loop for the initial connection. Without it the bot runs on the
// in-memory store, which loses conversations on restart.
func buildStore(databaseURL string) (store.Store, func(context.Context) error, func(), error) {
	if databaseURL == "" {
		log.Printf(`{"level":"warn","message":"DATABASE_URL not set, using in-memory store"}`)
		alwaysReady := func(context.Context) error { return nil }
		return store.NewMemoryStore(), alwaysReady, func() {}, nil
	}

	log.Println("Connecting to PostgreSQL database...")
	var pool *pgxpool.Pool
	var err error

	for i := 0; i < 10; i++ {
		pool, err = pgxpool.New(context.Background(), databaseURL)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				break
			}
		}
		log.Printf("Waiting for database... (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database after retries: %w", err)
	}

	log.Println("Connected to PostgreSQL database")
	return store.NewPostgresStore(pool), pool.Ping, pool.Close, nil
}

// structuredLoggingMiddleware provides structured JSON logging for all requests
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		logEntry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		}

		if len(c.Errors) > 0 {
			logEntry["errors"] = c.Errors.String()
		}

		logJSON, _ := json.Marshal(logEntry)
		log.Println(string(logJSON))
	}
}

// initTracer initializes OpenTelemetry tracing.
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}

// initMeter wires the OpenTelemetry metric SDK to the Prometheus registry
// served on /metrics.
func initMeter() error {
	exporter, err := otelprom.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(mp)

	return nil
}
