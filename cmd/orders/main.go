package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/FatihaELHABTI/go-shop/internal/auth"
	"github.com/FatihaELHABTI/go-shop/internal/domain"
	"github.com/FatihaELHABTI/go-shop/internal/messaging"
	"github.com/FatihaELHABTI/go-shop/internal/orders"
	"github.com/FatihaELHABTI/go-shop/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := telemetry.NewLogger("orders")

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("orders", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDBForSchema("postgres", postgresURL, "orders")
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	productsServiceURL := os.Getenv("PRODUCTS_SERVICE_URL")
	if productsServiceURL == "" {
		logger.Error("PRODUCTS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	publicKeyFile := os.Getenv("JWT_PUBLIC_KEY_FILE")
	if publicKeyFile == "" {
		logger.Error("JWT_PUBLIC_KEY_FILE environment variable is required")
		os.Exit(1)
	}

	verifier, err := auth.NewVerifierFromFile(publicKeyFile)
	if err != nil {
		logger.Error("failed to load token public key", "error", err)
		os.Exit(1)
	}

	var producer *messaging.OrderEventProducer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		producer = messaging.NewOrderEventProducer(strings.Split(kafkaBrokers, ","))
		defer func() { _ = producer.Close() }()
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	catalog := orders.NewCatalogClient(productsServiceURL, httpClient)
	repo := orders.NewPostgresRepository(db)
	orchestrator := orders.NewOrchestrator(catalog, repo, logger)
	handler := orders.NewHandler(orchestrator, repo, producer, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleCreate, domain.RoleCustomer)))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleListAll, domain.RoleAdmin)))
	mux.HandleFunc("GET /orders/stats", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleStats, domain.RoleAdmin)))
	mux.HandleFunc("GET /orders/my-orders", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleMyOrders, domain.RoleCustomer)))
	mux.HandleFunc("GET /orders/my-stats", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleMyStats, domain.RoleCustomer)))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleGet, domain.RoleAdmin, domain.RoleCustomer)))
	mux.HandleFunc("PUT /orders/{id}/cancel", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleCancel, domain.RoleCustomer)))

	root := http.NewServeMux()
	root.Handle("/orders", auth.RequireAuth(verifier, mux))
	root.Handle("/orders/", auth.RequireAuth(verifier, mux))
	root.Handle("GET /metrics", metricsHandler)
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(root, "orders",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting orders service", "port", port, "events_enabled", producer != nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
