package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/abouhashemahmed/heritage/internal/config"
	"github.com/abouhashemahmed/heritage/internal/fraud"
	"github.com/abouhashemahmed/heritage/internal/messaging"
	"github.com/abouhashemahmed/heritage/internal/shipping"
	"github.com/abouhashemahmed/heritage/internal/telemetry"
	"github.com/abouhashemahmed/heritage/internal/worker"
)

const serviceVersion = "0.1.0"

func main() {
	config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers, ok := config.MustGet("KAFKA_BROKERS")
	if !ok {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	ordersServiceURL, ok := config.MustGet("ORDERS_SERVICE_URL")
	if !ok {
		logger.Error("ORDERS_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	shippingWebhookURL, ok := config.MustGet("SHIPPING_WEBHOOK_URL")
	if !ok {
		logger.Error("SHIPPING_WEBHOOK_URL environment variable is required")
		os.Exit(1)
	}

	riskThreshold := config.GetFloat("FRAUD_RISK_THRESHOLD", 0.8)

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "worker", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	brokers := strings.Split(kafkaBrokers, ",")

	createdConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderCreated, "fraud-screening")
	defer func() { _ = createdConsumer.Close() }()

	shippedConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderShipped, "shipping-notifier")
	defer func() { _ = shippedConsumer.Close() }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	fraudHandler := worker.NewFraudHandler(fraud.NewScorer(), ordersServiceURL, riskThreshold, httpClient, logger)
	shipmentHandler := worker.NewShipmentHandler(shipping.NewNotifier(shippingWebhookURL, httpClient), logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting worker", "brokers", brokers, "risk_threshold", riskThreshold)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := createdConsumer.Consume(ctx, fraudHandler.Handle); err != nil && ctx.Err() == nil {
			logger.Error("fraud consumer error", "error", err)
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		if err := shippedConsumer.Consume(ctx, shipmentHandler.Handle); err != nil && ctx.Err() == nil {
			logger.Error("shipping consumer error", "error", err)
			cancel()
		}
	}()

	wg.Wait()
	logger.Info("worker stopped")
}
