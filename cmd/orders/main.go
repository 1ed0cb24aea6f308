package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/abouhashemahmed/heritage/internal/config"
	"github.com/abouhashemahmed/heritage/internal/messaging"
	"github.com/abouhashemahmed/heritage/internal/orders"
	"github.com/abouhashemahmed/heritage/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	config.Load()
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL, ok := config.MustGet("POSTGRES_URL")
	if !ok {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "orders", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("orders", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var createdProducer, shippedProducer *messaging.Producer
	if kafkaBrokers := config.Get("KAFKA_BROKERS", ""); kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		createdProducer = messaging.NewProducer(brokers, messaging.TopicOrderCreated)
		defer func() { _ = createdProducer.Close() }()
		shippedProducer = messaging.NewProducer(brokers, messaging.TopicOrderShipped)
		defer func() { _ = shippedProducer.Close() }()
	}

	repo := orders.NewRepository(db)
	service := orders.NewService(repo, createdProducer, shippedProducer, logger)
	handler := orders.NewHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(handler.HandleCreate))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(handler.HandleList))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(handler.HandleUpdateStatus))
	mux.HandleFunc("GET /admin/orders", telemetry.WithHTTPRoute(handler.HandleListAll))
	mux.HandleFunc("POST /internal/orders/{id}/flag", telemetry.WithHTTPRoute(handler.HandleFlag))
	mux.Handle("GET /metrics", metricsHandler)

	port := config.Get("PORT", "8081")

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "orders",
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
		logger.Info("starting orders service", "port", port)
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
