package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/abouhashemahmed/heritage/internal/domain"
	"github.com/abouhashemahmed/heritage/internal/fraud"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFraudHandlerFlagsHighRiskOrder(t *testing.T) {
	var flagged atomic.Int32
	var gotScore float64
	var gotRole string

	ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flagged.Add(1)
		gotRole = r.Header.Get("X-User-Role")
		var body map[string]float64
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotScore = body["risk_score"]
		w.WriteHeader(http.StatusOK)
	}))
	defer ordersServer.Close()

	// Threshold zero: everything is flagged.
	handler := NewFraudHandler(fraud.NewScorer(), ordersServer.URL, 0, ordersServer.Client(), discardLogger())

	event := domain.OrderCreatedEvent{
		OrderID:    uuid.New(),
		UserID:     "user-1",
		TotalCents: 600_000,
		Items:      []domain.OrderItem{{ProductID: uuid.New(), Quantity: 50}},
	}
	payload, _ := json.Marshal(event)

	if err := handler.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if flagged.Load() != 1 {
		t.Fatalf("expected 1 flag call, got %d", flagged.Load())
	}
	if gotScore <= 0 || gotScore > 1 {
		t.Errorf("unexpected risk score %f", gotScore)
	}
	if gotRole != domain.RoleService {
		t.Errorf("expected service role header, got %q", gotRole)
	}
}

func TestFraudHandlerSkipsLowRiskOrder(t *testing.T) {
	var flagged atomic.Int32
	ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flagged.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ordersServer.Close()

	handler := NewFraudHandler(fraud.NewScorer(), ordersServer.URL, 0.99, ordersServer.Client(), discardLogger())

	event := domain.OrderCreatedEvent{
		OrderID:    uuid.New(),
		UserID:     "user-1",
		TotalCents: 1_500,
		Items:      []domain.OrderItem{{ProductID: uuid.New(), Quantity: 1}},
	}
	payload, _ := json.Marshal(event)

	if err := handler.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if flagged.Load() != 0 {
		t.Fatalf("expected no flag calls, got %d", flagged.Load())
	}
}

func TestFraudHandlerFailsOpen(t *testing.T) {
	t.Run("orders service down", func(t *testing.T) {
		handler := NewFraudHandler(fraud.NewScorer(), "http://localhost:1", 0, &http.Client{}, discardLogger())

		event := domain.OrderCreatedEvent{OrderID: uuid.New(), TotalCents: 600_000}
		payload, _ := json.Marshal(event)

		if err := handler.Handle(context.Background(), payload); err != nil {
			t.Fatalf("expected fail-open nil error, got %v", err)
		}
	})

	t.Run("malformed event", func(t *testing.T) {
		handler := NewFraudHandler(fraud.NewScorer(), "http://unused", 0, http.DefaultClient, discardLogger())

		if err := handler.Handle(context.Background(), []byte("not json")); err != nil {
			t.Fatalf("expected poison message to be swallowed, got %v", err)
		}
	})

	t.Run("order already progressed", func(t *testing.T) {
		ordersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer ordersServer.Close()

		handler := NewFraudHandler(fraud.NewScorer(), ordersServer.URL, 0, ordersServer.Client(), discardLogger())

		event := domain.OrderCreatedEvent{OrderID: uuid.New(), TotalCents: 600_000}
		payload, _ := json.Marshal(event)

		if err := handler.Handle(context.Background(), payload); err != nil {
			t.Fatalf("expected benign race to be swallowed, got %v", err)
		}
	})
}
