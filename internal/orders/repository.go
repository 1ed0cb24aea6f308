package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/abouhashemahmed/heritage/internal/domain"
)

const pqUniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, key uuid.UUID) (*domain.Order, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM orders.orders WHERE idempotency_key = $1
	`, key).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Create persists the order, its items, its addresses and the CREATED event
// in one transaction, decrementing stock conditionally per item.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New()
	order.Status = domain.OrderStatusPending
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	// Snapshot the current catalog price per item; the client's price is ignored.
	order.TotalCents = 0
	for i := range order.Items {
		item := &order.Items[i]

		var priceCents int64
		err := tx.QueryRowContext(ctx, `
			SELECT price_cents FROM catalog.products WHERE id = $1
		`, item.ProductID).Scan(&priceCents)
		if err == sql.ErrNoRows {
			return fmt.Errorf("price product %s: %w", item.ProductID, domain.ErrProductNotFound)
		}
		if err != nil {
			return err
		}

		item.UnitPriceCents = priceCents
		item.SubtotalCents = priceCents * int64(item.Quantity)
		order.TotalCents += item.SubtotalCents
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders.orders (id, user_id, total_cents, status, payment_method, note, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, order.ID, order.UserID, order.TotalCents, order.Status, order.PaymentMethod,
		nullString(order.Note), order.IdempotencyKey, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders.order_items (id, order_id, product_id, quantity, unit_price_cents, subtotal_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.New(), order.ID, item.ProductID, item.Quantity, item.UnitPriceCents, item.SubtotalCents)
		if err != nil {
			return err
		}

		// Zero rows means a concurrent order took the remaining stock.
		result, err := tx.ExecContext(ctx, `
			UPDATE catalog.products
			SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2
		`, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &domain.InsufficientStockError{ProductID: item.ProductID}
		}
	}

	if err := r.insertAddress(ctx, tx, order.ID, "shipping", order.ShippingAddress); err != nil {
		return err
	}
	if err := r.insertAddress(ctx, tx, order.ID, "billing", order.BillingAddress); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"status":      order.Status,
		"total_cents": order.TotalCents,
	})
	if err != nil {
		return err
	}
	if err := r.insertEvent(ctx, tx, order.ID, domain.EventOrderCreated, order.UserID, payload, now); err != nil {
		return err
	}

	return tx.Commit()
}

func IsIdempotencyConflict(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func (r *Repository) insertAddress(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, kind string, addr *domain.Address) error {
	if addr == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders.order_addresses (id, order_id, kind, street, city, country, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), orderID, kind, addr.Street, addr.City, addr.Country, addr.PostalCode)
	return err
}

func (r *Repository) insertEvent(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, eventType, actorID string, payload []byte, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders.order_events (id, order_id, event_type, actor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), orderID, eventType, actorID, payload, at)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order := &domain.Order{}
	var note sql.NullString
	var tracking sql.NullString
	var idemKey uuid.NullUUID

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total_cents, status, payment_method, note, idempotency_key, tracking_number, created_at, updated_at
		FROM orders.orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.TotalCents, &order.Status,
		&order.PaymentMethod, &note, &idemKey, &tracking,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	order.Note = note.String
	order.TrackingNumber = tracking.String
	if idemKey.Valid {
		order.IdempotencyKey = &idemKey.UUID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price_cents, subtotal_cents
		FROM orders.order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPriceCents, &item.SubtotalCents); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	addrRows, err := r.db.QueryContext(ctx, `
		SELECT kind, street, city, country, postal_code
		FROM orders.order_addresses
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = addrRows.Close() }()

	for addrRows.Next() {
		var kind string
		addr := &domain.Address{}
		if err := addrRows.Scan(&kind, &addr.Street, &addr.City, &addr.Country, &addr.PostalCode); err != nil {
			return nil, err
		}
		if kind == "billing" {
			order.BillingAddress = addr
		} else {
			order.ShippingAddress = addr
		}
	}
	if err := addrRows.Err(); err != nil {
		return nil, err
	}

	eventRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, event_type, actor_id, payload, created_at
		FROM orders.order_events
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 10
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = eventRows.Close() }()

	for eventRows.Next() {
		var ev domain.OrderEvent
		if err := eventRows.Scan(&ev.ID, &ev.OrderID, &ev.EventType, &ev.ActorID, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		order.Events = append(order.Events, ev)
	}
	if err := eventRows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListFilter narrows and pages List results. An empty UserID lists across all users.
type ListFilter struct {
	UserID string
	Status domain.OrderStatus
	Page   int
	Limit  int
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]domain.Order, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders.orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT id, user_id, total_cents, status, payment_method, tracking_number, created_at, updated_at
		FROM orders.orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[uuid.UUID]*domain.Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		var order domain.Order
		var tracking sql.NullString
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalCents, &order.Status,
			&order.PaymentMethod, &tracking, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, 0, err
		}
		order.TrackingNumber = tracking.String
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, total, nil
	}

	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, unit_price_cents, subtotal_cents
		FROM orders.order_items
		WHERE order_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID uuid.UUID
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.UnitPriceCents, &item.SubtotalCents); err != nil {
			return nil, 0, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, 0, err
	}

	result := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *orderMap[id])
	}

	return result, total, nil
}

// UpdateStatus locks the order row before validating the transition, so
// concurrent calls serialize. Cancelling a stock-holding order increments
// stock back inside the same transaction.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, target domain.OrderStatus, trackingNumber, actorID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM orders.orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if !current.CanTransitionTo(target) {
		return &domain.InvalidTransitionError{From: current, To: target}
	}

	if target == domain.OrderStatusCancelled && current.HoldsStock() {
		if err := r.reverseStock(ctx, tx, id); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	if target == domain.OrderStatusShipped && trackingNumber != "" {
		_, err = tx.ExecContext(ctx, `
			UPDATE orders.orders SET status = $1, tracking_number = $2, updated_at = $3 WHERE id = $4
		`, target, trackingNumber, now, id)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE orders.orders SET status = $1, updated_at = $2 WHERE id = $3
		`, target, now, id)
	}
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"from":            current,
		"to":              target,
		"tracking_number": trackingNumber,
	})
	if err != nil {
		return err
	}
	if err := r.insertEvent(ctx, tx, id, domain.EventStatusChange, actorID, payload, now); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) reverseStock(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity FROM orders.order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	type reversal struct {
		productID uuid.UUID
		quantity  int
	}
	var reversals []reversal
	for rows.Next() {
		var rev reversal
		if err := rows.Scan(&rev.productID, &rev.quantity); err != nil {
			return err
		}
		reversals = append(reversals, rev)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, rev := range reversals {
		_, err := tx.ExecContext(ctx, `
			UPDATE catalog.products SET stock = stock + $2, updated_at = NOW() WHERE id = $1
		`, rev.productID, rev.quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

// FlagForReview only applies while the order is still PENDING.
func (r *Repository) FlagForReview(ctx context.Context, id uuid.UUID, riskScore float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM orders.orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return err
	}

	if current != domain.OrderStatusPending {
		return &domain.InvalidTransitionError{From: current, To: domain.OrderStatusPendingReview}
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE orders.orders SET status = $1, updated_at = $2 WHERE id = $3
	`, domain.OrderStatusPendingReview, now, id)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{"risk_score": riskScore})
	if err != nil {
		return err
	}
	if err := r.insertEvent(ctx, tx, id, domain.EventFraudFlagged, domain.ActorSystem, payload, now); err != nil {
		return err
	}

	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
