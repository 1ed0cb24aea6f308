package orders

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/abouhashemahmed/heritage/internal/domain"
)

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		Items: []CreateOrderItem{
			{ProductID: uuid.New(), Quantity: 2, PriceCents: 4500},
		},
		ShippingAddress: &domain.Address{
			Street:     "12 Harbour Lane",
			City:       "Porto",
			Country:    "PT",
			PostalCode: "4000-123",
		},
		PaymentMethod: "CARD",
	}
}

func TestCreateOrderRequestValidate(t *testing.T) {
	if err := validRequest().Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	tests := []struct {
		name      string
		mutate    func(*CreateOrderRequest)
		wantField string
	}{
		{
			name:      "no items",
			mutate:    func(r *CreateOrderRequest) { r.Items = nil },
			wantField: "items",
		},
		{
			name:      "nil product id",
			mutate:    func(r *CreateOrderRequest) { r.Items[0].ProductID = uuid.Nil },
			wantField: "items[0].product_id",
		},
		{
			name:      "zero quantity",
			mutate:    func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 },
			wantField: "items[0].quantity",
		},
		{
			name:      "negative quantity",
			mutate:    func(r *CreateOrderRequest) { r.Items[0].Quantity = -3 },
			wantField: "items[0].quantity",
		},
		{
			name:      "zero price",
			mutate:    func(r *CreateOrderRequest) { r.Items[0].PriceCents = 0 },
			wantField: "items[0].price_cents",
		},
		{
			name:      "missing shipping address",
			mutate:    func(r *CreateOrderRequest) { r.ShippingAddress = nil },
			wantField: "shipping_address",
		},
		{
			name:      "short street",
			mutate:    func(r *CreateOrderRequest) { r.ShippingAddress.Street = "ab" },
			wantField: "shipping_address.street",
		},
		{
			name:      "short city",
			mutate:    func(r *CreateOrderRequest) { r.ShippingAddress.City = "x" },
			wantField: "shipping_address.city",
		},
		{
			name:      "short country",
			mutate:    func(r *CreateOrderRequest) { r.ShippingAddress.Country = "p" },
			wantField: "shipping_address.country",
		},
		{
			name:      "short postal code",
			mutate:    func(r *CreateOrderRequest) { r.ShippingAddress.PostalCode = "12" },
			wantField: "shipping_address.postal_code",
		},
		{
			name: "bad billing address",
			mutate: func(r *CreateOrderRequest) {
				r.BillingAddress = &domain.Address{Street: "x", City: "Porto", Country: "PT", PostalCode: "4000"}
			},
			wantField: "billing_address.street",
		},
		{
			name:      "unknown payment method",
			mutate:    func(r *CreateOrderRequest) { r.PaymentMethod = "BARTER" },
			wantField: "payment_method",
		},
		{
			name:      "empty payment method",
			mutate:    func(r *CreateOrderRequest) { r.PaymentMethod = "" },
			wantField: "payment_method",
		},
		{
			name:      "oversized note",
			mutate:    func(r *CreateOrderRequest) { r.Note = strings.Repeat("a", maxNoteLength+1) },
			wantField: "note",
		},
		{
			name:      "malformed idempotency key",
			mutate:    func(r *CreateOrderRequest) { r.IdempotencyKey = "not-a-uuid" },
			wantField: "idempotency_key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := req.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			validationErr, ok := err.(*domain.ValidationError)
			if !ok {
				t.Fatalf("expected *domain.ValidationError, got %T", err)
			}
			if validationErr.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q", tt.wantField, validationErr.Field)
			}
		})
	}
}

func TestCreateOrderRequestValidateBoundaries(t *testing.T) {
	req := validRequest()
	req.Note = strings.Repeat("a", maxNoteLength)
	if err := req.Validate(); err != nil {
		t.Fatalf("note at the limit should pass, got %v", err)
	}

	req = validRequest()
	req.IdempotencyKey = uuid.NewString()
	if err := req.Validate(); err != nil {
		t.Fatalf("valid idempotency key should pass, got %v", err)
	}

	req = validRequest()
	req.BillingAddress = &domain.Address{
		Street:     "99 Billing Road",
		City:       "Lisbon",
		Country:    "PT",
		PostalCode: "1000-001",
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("request with billing address should pass, got %v", err)
	}
}
