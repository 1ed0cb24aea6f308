package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abouhashemahmed/heritage/internal/domain"
	"github.com/abouhashemahmed/heritage/internal/fraud"
)

// FraudHandler screens new orders fail-open: failures are logged and the message committed.
type FraudHandler struct {
	scorer        *fraud.Scorer
	ordersBaseURL string
	threshold     float64
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewFraudHandler(scorer *fraud.Scorer, ordersBaseURL string, threshold float64, client *http.Client, logger *slog.Logger) *FraudHandler {
	return &FraudHandler{
		scorer:        scorer,
		ordersBaseURL: ordersBaseURL,
		threshold:     threshold,
		httpClient:    client,
		logger:        logger,
	}
}

func (h *FraudHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("failed to unmarshal order created event", "error", err)
		return nil
	}

	score := h.scorer.Score(event)
	h.logger.Info("order screened", "order_id", event.OrderID, "risk_score", score)

	if score < h.threshold {
		return nil
	}

	if err := h.flagOrder(ctx, event.OrderID.String(), score); err != nil {
		h.logger.Error("failed to flag order for review", "error", err, "order_id", event.OrderID, "risk_score", score)
		return nil
	}

	h.logger.Info("order flagged for review", "order_id", event.OrderID, "risk_score", score)
	return nil
}

func (h *FraudHandler) flagOrder(ctx context.Context, orderID string, score float64) error {
	data, err := json.Marshal(map[string]float64{"risk_score": score})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/internal/orders/%s/flag", h.ordersBaseURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Role", domain.RoleService)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// 400 means the order already moved past PENDING.
	if resp.StatusCode == http.StatusBadRequest {
		h.logger.Info("order no longer pending, flag skipped", "order_id", orderID)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("orders service returned status %d", resp.StatusCode)
	}

	return nil
}
