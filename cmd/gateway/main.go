package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/FatihaELHABTI/go-shop/internal/auth"
	"github.com/FatihaELHABTI/go-shop/internal/gateway"
	"github.com/FatihaELHABTI/go-shop/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := telemetry.NewLogger("gateway")

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	productsServiceURL := os.Getenv("PRODUCTS_SERVICE_URL")
	if productsServiceURL == "" {
		logger.Error("PRODUCTS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	ordersServiceURL := os.Getenv("ORDERS_SERVICE_URL")
	if ordersServiceURL == "" {
		logger.Error("ORDERS_SERVICE_URL environment variable is required")
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

	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:4200"
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	productsProxy := gateway.NewServiceProxy(productsServiceURL, httpClient)
	ordersProxy := gateway.NewServiceProxy(ordersServiceURL, httpClient)
	handler := gateway.NewHandler(productsProxy, ordersProxy, logger)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/products", telemetry.WithHTTPRoute(handler.HandleProducts))
	apiMux.HandleFunc("/api/products/{rest...}", telemetry.WithHTTPRoute(handler.HandleProducts))
	apiMux.HandleFunc("/api/orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	apiMux.HandleFunc("/api/orders/{rest...}", telemetry.WithHTTPRoute(handler.HandleOrders))

	// CORS runs first so preflight requests never hit token verification.
	api := gateway.CORS(allowedOrigin, auth.RequireAuth(verifier, apiMux))

	mux := http.NewServeMux()
	mux.Handle("/api/", api)
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "gateway",
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
		logger.Info("starting gateway service", "port", port, "allowed_origin", allowedOrigin)
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
