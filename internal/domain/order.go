package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusPendingReview OrderStatus = "PENDING_REVIEW"
	OrderStatusProcessing    OrderStatus = "PROCESSING"
	OrderStatusShipped       OrderStatus = "SHIPPED"
	OrderStatusDelivered     OrderStatus = "DELIVERED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
	OrderStatusRefunded      OrderStatus = "REFUNDED"
)

// transitions is the lifecycle table. PENDING_REVIEW is entered only through the fraud flag.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusPendingReview: {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:       {OrderStatusDelivered},
	OrderStatusDelivered:     {OrderStatusRefunded},
	OrderStatusCancelled:     {},
	OrderStatusRefunded:      {},
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// HoldsStock reports whether cancelling from this status must restore stock.
func (s OrderStatus) HoldsStock() bool {
	switch s {
	case OrderStatusPending, OrderStatusPendingReview, OrderStatusProcessing:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCashOnDelivery, PaymentMethodBankTransfer:
		return true
	}
	return false
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// OrderItem snapshots the catalog unit price at creation time.
type OrderItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	SubtotalCents  int64     `json:"subtotal_cents"`
}

type Order struct {
	ID              uuid.UUID     `json:"id"`
	UserID          string        `json:"user_id"`
	Items           []OrderItem   `json:"items"`
	TotalCents      int64         `json:"total_cents"`
	Status          OrderStatus   `json:"status"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Note            string        `json:"note,omitempty"`
	IdempotencyKey  *uuid.UUID    `json:"idempotency_key,omitempty"`
	TrackingNumber  string        `json:"tracking_number,omitempty"`
	ShippingAddress *Address      `json:"shipping_address,omitempty"`
	BillingAddress  *Address      `json:"billing_address,omitempty"`
	Events          []OrderEvent  `json:"events,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Identity struct {
	UserID string
	Role   string
}

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleService  = "service"
)

func (i Identity) IsAdmin() bool   { return i.Role == RoleAdmin }
func (i Identity) IsService() bool { return i.Role == RoleService }

func (i Identity) CanView(o *Order) bool {
	return i.IsAdmin() || i.IsService() || i.UserID == o.UserID
}
