package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abouhashemahmed/heritage/internal/domain"
	"github.com/abouhashemahmed/heritage/internal/messaging"
)

const maxNoteLength = 500

// Service implements order creation, lifecycle transitions and the fraud flag.
type Service struct {
	repo            *Repository
	createdProducer *messaging.Producer
	shippedProducer *messaging.Producer
	logger          *slog.Logger
}

func NewService(repo *Repository, createdProducer, shippedProducer *messaging.Producer, logger *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		createdProducer: createdProducer,
		shippedProducer: shippedProducer,
		logger:          logger,
	}
}

type CreateOrderItem struct {
	ProductID  uuid.UUID `json:"product_id"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"price_cents"`
}

type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress *domain.Address   `json:"shipping_address"`
	BillingAddress  *domain.Address   `json:"billing_address,omitempty"`
	PaymentMethod   string            `json:"payment_method"`
	Note            string            `json:"note,omitempty"`
	IdempotencyKey  string            `json:"idempotency_key,omitempty"`
}

func (req *CreateOrderRequest) Validate() error {
	if len(req.Items) == 0 {
		return &domain.ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].product_id", i), Reason: "must be a valid UUID"}
		}
		if item.Quantity <= 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be a positive integer"}
		}
		if item.PriceCents <= 0 {
			return &domain.ValidationError{Field: fmt.Sprintf("items[%d].price_cents", i), Reason: "must be positive"}
		}
	}
	if err := validateAddress("shipping_address", req.ShippingAddress); err != nil {
		return err
	}
	if req.BillingAddress != nil {
		if err := validateAddress("billing_address", req.BillingAddress); err != nil {
			return err
		}
	}
	if !domain.PaymentMethod(req.PaymentMethod).Valid() {
		return &domain.ValidationError{Field: "payment_method", Reason: "unknown payment method"}
	}
	if len(req.Note) > maxNoteLength {
		return &domain.ValidationError{Field: "note", Reason: fmt.Sprintf("must not exceed %d characters", maxNoteLength)}
	}
	if req.IdempotencyKey != "" {
		if _, err := uuid.Parse(req.IdempotencyKey); err != nil {
			return &domain.ValidationError{Field: "idempotency_key", Reason: "must be a valid UUID"}
		}
	}
	return nil
}

func validateAddress(field string, addr *domain.Address) error {
	if addr == nil {
		return &domain.ValidationError{Field: field, Reason: "is required"}
	}
	if len(addr.Street) < 3 {
		return &domain.ValidationError{Field: field + ".street", Reason: "must be at least 3 characters"}
	}
	if len(addr.City) < 2 {
		return &domain.ValidationError{Field: field + ".city", Reason: "must be at least 2 characters"}
	}
	if len(addr.Country) < 2 {
		return &domain.ValidationError{Field: field + ".country", Reason: "must be at least 2 characters"}
	}
	if len(addr.PostalCode) < 3 {
		return &domain.ValidationError{Field: field + ".postal_code", Reason: "must be at least 3 characters"}
	}
	return nil
}

// CreateOrder's returned bool reports an idempotent replay.
func (s *Service) CreateOrder(ctx context.Context, userID string, req *CreateOrderRequest) (*domain.Order, bool, error) {
	if userID == "" {
		return nil, false, &domain.ValidationError{Field: "user", Reason: "requester identity is required"}
	}
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	var idemKey *uuid.UUID
	if req.IdempotencyKey != "" {
		key, _ := uuid.Parse(req.IdempotencyKey)
		idemKey = &key

		existing, err := s.repo.FindByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, true, nil
		}
	}

	billing := req.BillingAddress
	if billing == nil {
		billing = req.ShippingAddress
	}

	order := &domain.Order{
		UserID:          userID,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		Note:            req.Note,
		IdempotencyKey:  idemKey,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := s.repo.Create(ctx, order); err != nil {
		// Lost a race on the key; return the winner's order.
		if idemKey != nil && IsIdempotencyConflict(err) {
			existing, lookupErr := s.repo.FindByIdempotencyKey(ctx, *idemKey)
			if lookupErr == nil && existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}

	s.publishCreated(ctx, order)

	return order, false, nil
}

func (s *Service) publishCreated(ctx context.Context, order *domain.Order) {
	if s.createdProducer == nil {
		return
	}
	event := domain.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalCents: order.TotalCents,
		Items:      order.Items,
		Note:       order.Note,
		Timestamp:  order.CreatedAt,
	}
	if err := s.createdProducer.Publish(ctx, order.ID.String(), event); err != nil {
		s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
	}
}

type UpdateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
}

// UpdateStatus applies a lifecycle transition. Shipping with a tracking
// number publishes order.shipped after the commit.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, actor domain.Identity, req *UpdateStatusRequest) (*domain.Order, error) {
	target := domain.OrderStatus(req.Status)
	if !target.Valid() || target == domain.OrderStatusPending {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}
	// Review holds are entered through the fraud flag, not this endpoint.
	if target == domain.OrderStatusPendingReview {
		return nil, &domain.ValidationError{Field: "status", Reason: "cannot be targeted directly"}
	}

	actorID := actor.UserID
	if actorID == "" {
		actorID = domain.ActorSystem
	}

	if err := s.repo.UpdateStatus(ctx, id, target, req.TrackingNumber, actorID); err != nil {
		return nil, err
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if target == domain.OrderStatusShipped && order.TrackingNumber != "" {
		s.publishShipped(ctx, order, req.Carrier)
	}

	return order, nil
}

func (s *Service) publishShipped(ctx context.Context, order *domain.Order, carrier string) {
	if s.shippedProducer == nil {
		return
	}
	if carrier == "" {
		carrier = "standard"
	}
	event := domain.OrderShippedEvent{
		OrderID:        order.ID,
		TrackingNumber: order.TrackingNumber,
		Carrier:        carrier,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.shippedProducer.Publish(ctx, order.ID.String(), event); err != nil {
		s.logger.Error("failed to publish order shipped event", "error", err, "order_id", order.ID)
	}
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID, requester domain.Identity) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !requester.CanView(order) {
		return nil, domain.ErrAccessDenied
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, filter ListFilter) ([]domain.Order, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}
	return s.repo.List(ctx, filter)
}

// FlagForReview only applies while the order is still PENDING.
func (s *Service) FlagForReview(ctx context.Context, id uuid.UUID, riskScore float64) (*domain.Order, error) {
	if riskScore < 0 || riskScore > 1 {
		return nil, &domain.ValidationError{Field: "risk_score", Reason: "must be between 0 and 1"}
	}
	if err := s.repo.FlagForReview(ctx, id, riskScore); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
