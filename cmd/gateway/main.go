package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/abouhashemahmed/heritage/internal/config"
	"github.com/abouhashemahmed/heritage/internal/gateway"
	"github.com/abouhashemahmed/heritage/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	config.Load()
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	port := config.Get("PORT", "8080")

	ordersServiceURL, ok := config.MustGet("ORDERS_SERVICE_URL")
	if !ok {
		logger.Error("ORDERS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	catalogServiceURL, ok := config.MustGet("CATALOG_SERVICE_URL")
	if !ok {
		logger.Error("CATALOG_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	ordersProxy := gateway.NewServiceProxy(ordersServiceURL, httpClient)
	catalogProxy := gateway.NewServiceProxy(catalogServiceURL, httpClient)
	handler := gateway.NewHandler(ordersProxy, catalogProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/orders/{id}", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("PATCH /api/orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/admin/orders", telemetry.WithHTTPRoute(handler.HandleOrders))
	mux.HandleFunc("GET /api/products", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("POST /api/products", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("GET /api/products/{id}", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("POST /api/products/{id}/restock", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("PATCH /api/products/{id}/price", telemetry.WithHTTPRoute(handler.HandleCatalog))

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
		logger.Info("starting gateway service", "port", port)
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
