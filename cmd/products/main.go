package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/FatihaELHABTI/go-shop/internal/auth"
	"github.com/FatihaELHABTI/go-shop/internal/domain"
	"github.com/FatihaELHABTI/go-shop/internal/products"
	"github.com/FatihaELHABTI/go-shop/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := telemetry.NewLogger("products")

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "products", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("products", "0.1.0")
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

	db, err := telemetry.OpenDBForSchema("postgres", postgresURL, "catalog")
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
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

	repo := products.NewPostgresRepository(db)
	handler := products.NewHandler(repo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleList, domain.RoleAdmin, domain.RoleCustomer)))
	mux.HandleFunc("POST /products", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleCreate, domain.RoleAdmin)))
	mux.HandleFunc("GET /products/stats", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleStats, domain.RoleAdmin)))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleGet, domain.RoleAdmin, domain.RoleCustomer)))
	mux.HandleFunc("PUT /products/{id}", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleUpdate, domain.RoleAdmin)))
	mux.HandleFunc("DELETE /products/{id}", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleDelete, domain.RoleAdmin)))
	mux.HandleFunc("PUT /products/{id}/reduce-stock", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleReduceStock, domain.RoleCustomer)))
	mux.HandleFunc("PUT /products/{id}/restock", telemetry.WithHTTPRoute(
		auth.RequireRoles(handler.HandleRestock, domain.RoleCustomer)))

	root := http.NewServeMux()
	root.Handle("/products", auth.RequireAuth(verifier, mux))
	root.Handle("/products/", auth.RequireAuth(verifier, mux))
	root.Handle("GET /metrics", metricsHandler)
	root.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(root, "products",
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
		logger.Info("starting products service", "port", port)
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
