package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abouhashemahmed/heritage/internal/config"
	"github.com/abouhashemahmed/heritage/internal/shippingsim"
)

func main() {
	config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	handler := shippingsim.NewHandler(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /shipments", handler.HandleShipment)

	port := config.Get("PORT", "8083")

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting shipping simulator", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
