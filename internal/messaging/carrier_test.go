package messaging

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestHeaderCarrierRoundtrip(t *testing.T) {
	msg := &kafka.Message{}
	carrier := newHeaderCarrier(msg)

	if got := carrier.Get("traceparent"); got != "" {
		t.Fatalf("expected empty value for unset key, got %q", got)
	}

	carrier.Set("traceparent", "00-abc-def-01")
	carrier.Set("baggage", "tenant=acme")

	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent '00-abc-def-01', got %q", got)
	}

	// Setting an existing key overwrites in place rather than duplicating
	// the header.
	carrier.Set("traceparent", "00-abc-def-02")
	if got := carrier.Get("traceparent"); got != "00-abc-def-02" {
		t.Fatalf("expected updated traceparent, got %q", got)
	}
	if len(msg.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(msg.Headers))
	}

	keys := carrier.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}
