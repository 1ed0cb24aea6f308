package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/abouhashemahmed/heritage/internal/domain"
	"github.com/abouhashemahmed/heritage/internal/shipping"
)

// ShipmentHandler notifies the shipping provider; failures are logged, never retried.
type ShipmentHandler struct {
	notifier *shipping.Notifier
	logger   *slog.Logger
}

func NewShipmentHandler(notifier *shipping.Notifier, logger *slog.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		notifier: notifier,
		logger:   logger,
	}
}

func (h *ShipmentHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderShippedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("failed to unmarshal order shipped event", "error", err)
		return nil
	}

	if err := h.notifier.NotifyShipment(ctx, event.OrderID, event.TrackingNumber, event.Carrier); err != nil {
		h.logger.Error("failed to notify shipping provider", "error", err, "order_id", event.OrderID, "tracking_number", event.TrackingNumber)
		return nil
	}

	h.logger.Info("shipping provider notified", "order_id", event.OrderID, "tracking_number", event.TrackingNumber, "carrier", event.Carrier)
	return nil
}
