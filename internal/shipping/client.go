package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhookURL string, client *http.Client) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: client,
	}
}

type shipmentNotification struct {
	OrderID        uuid.UUID `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
}

func (n *Notifier) NotifyShipment(ctx context.Context, orderID uuid.UUID, trackingNumber, carrier string) error {
	data, err := json.Marshal(shipmentNotification{
		OrderID:        orderID,
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL+"/shipments", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("shipping provider returned status %d", resp.StatusCode)
	}

	return nil
}
