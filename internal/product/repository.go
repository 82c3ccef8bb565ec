package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *string, limit, page *int32) ([]*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	ListByCategorySlug(ctx context.Context, slug string) ([]*Product, error)
	PricesFor(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, name, slug, description, price, category_id, quantity, shipping, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.CategoryID, &p.Quantity, &p.Shipping, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Product) (*Product, error) {
	log := logger.FromCtx(ctx).With(zap.String("product_name", p.Name))

	query := `
		INSERT INTO products (name, slug, description, price, category_id, quantity, shipping)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + productColumns

	created, err := scanProduct(r.db.QueryRowContext(ctx, query,
		p.Name, p.Slug, p.Description, p.Price, p.CategoryID, p.Quantity, p.Shipping,
	))
	if err != nil {
		log.Error("db: create product failed", zap.Error(err))
		return nil, fmt.Errorf("create product failed: %w", err)
	}

	log.Info("product created", zap.String("product_id", created.ID))
	return created, nil
}

func (r *repository) Update(ctx context.Context, p *Product) (*Product, error) {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5,
		    category_id = $6, quantity = $7, shipping = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	updated, err := scanProduct(r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.CategoryID, p.Quantity, p.Shipping,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product failed: %w", err)
	}

	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter *string, limit, page *int32) ([]*Product, error) {

	// ---------- DEFAULTS ----------
	finalLimit := int32(20)
	finalPage := int32(1)

	if limit != nil && *limit > 0 {
		finalLimit = *limit
	}
	if page != nil && *page > 0 {
		finalPage = *page
	}

	finalOffset := (finalPage - 1) * finalLimit

	log := logger.FromCtx(ctx).With(
		zap.Int32("limit", finalLimit),
		zap.Int32("page", finalPage),
	)

	// ---------- BASE QUERY ----------
	query := `SELECT ` + productColumns + ` FROM products`

	where := []string{}
	args := []interface{}{}

	// ---------- FILTER ----------
	if filter != nil && *filter != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+*filter+"%")
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	// ---------- ORDER & PAGINATION ----------
	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, finalLimit, finalOffset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("db: list products failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	products := make([]*Product, 0, finalLimit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("db: product row scan failed", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) ListByCategorySlug(ctx context.Context, slug string) ([]*Product, error) {
	query := `
		SELECT p.id, p.name, p.slug, p.description, p.price,
		       p.category_id, p.quantity, p.shipping, p.created_at, p.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE c.slug = $1
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("list products by category failed: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// PricesFor returns the current catalog price for each requested product id.
// Every id must resolve; a missing id fails the whole lookup so checkout never
// charges for an unknown product.
func (r *repository) PricesFor(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	if len(productIDs) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, price FROM products WHERE id = ANY($1)`,
		pq.Array(productIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("price lookup failed: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal, len(productIDs))
	for rows.Next() {
		var id string
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("price scan failed: %w", err)
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range productIDs {
		if _, ok := prices[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
	}

	return prices, nil
}
