package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/abouhashemahmed/heritage/internal/domain"
	"github.com/abouhashemahmed/heritage/internal/shipping"
)

func TestShipmentHandlerNotifiesProvider(t *testing.T) {
	var got map[string]string

	providerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shipments" {
			t.Errorf("expected /shipments, got %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer providerServer.Close()

	notifier := shipping.NewNotifier(providerServer.URL, providerServer.Client())
	handler := NewShipmentHandler(notifier, discardLogger())

	orderID := uuid.New()
	event := domain.OrderShippedEvent{
		OrderID:        orderID,
		TrackingNumber: "TRACK-42",
		Carrier:        "aramex",
	}
	payload, _ := json.Marshal(event)

	if err := handler.Handle(context.Background(), payload); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	if got["order_id"] != orderID.String() {
		t.Errorf("expected order_id %s, got %s", orderID, got["order_id"])
	}
	if got["tracking_number"] != "TRACK-42" {
		t.Errorf("expected tracking TRACK-42, got %s", got["tracking_number"])
	}
	if got["carrier"] != "aramex" {
		t.Errorf("expected carrier aramex, got %s", got["carrier"])
	}
}

func TestShipmentHandlerSwallowsProviderFailure(t *testing.T) {
	providerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer providerServer.Close()

	notifier := shipping.NewNotifier(providerServer.URL, providerServer.Client())
	handler := NewShipmentHandler(notifier, discardLogger())

	payload, _ := json.Marshal(domain.OrderShippedEvent{OrderID: uuid.New(), TrackingNumber: "T-1"})

	if err := handler.Handle(context.Background(), payload); err != nil {
		t.Fatalf("expected best-effort nil error, got %v", err)
	}
}
