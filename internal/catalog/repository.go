package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/abouhashemahmed/heritage/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_cents, stock, created_at, updated_at
		FROM catalog.products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price_cents, stock, created_at, updated_at
		FROM catalog.products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return p, nil
}

func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalog.products (id, name, price_cents, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, p.ID, p.Name, p.PriceCents, p.Stock, p.CreatedAt)
	return err
}

func (r *Repository) Restock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE catalog.products SET stock = stock + $2, updated_at = NOW() WHERE id = $1
	`, id, quantity)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// UpdatePrice changes the catalog price; existing order items keep their snapshot.
func (r *Repository) UpdatePrice(ctx context.Context, id uuid.UUID, priceCents int64) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE catalog.products SET price_cents = $2, updated_at = NOW() WHERE id = $1
	`, id, priceCents)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}
