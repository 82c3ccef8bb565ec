package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, name, slug string) (*Category, error)
	Update(ctx context.Context, id, name, slug string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, slug string) (*Category, error) {
	log := logger.FromCtx(ctx).With(zap.String("category_name", name))

	query := `
		INSERT INTO categories (name, slug)
		VALUES ($1, $2)
		RETURNING id, name, slug
	`

	var c Category
	err := r.db.QueryRowContext(ctx, query, name, slug).
		Scan(&c.ID, &c.Name, &c.Slug)
	if err != nil {
		log.Error("db: create category failed", zap.Error(err))
		return nil, fmt.Errorf("create category failed: %w", err)
	}

	log.Info("category created", zap.String("category_id", c.ID))
	return &c, nil
}

func (r *repository) Update(ctx context.Context, id, name, slug string) (*Category, error) {
	query := `
		UPDATE categories
		SET name = $2, slug = $3
		WHERE id = $1
		RETURNING id, name, slug
	`

	var c Category
	err := r.db.QueryRowContext(ctx, query, id, name, slug).
		Scan(&c.ID, &c.Name, &c.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update category failed: %w", err)
	}

	return &c, nil
}

func (r *repository) List(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug FROM categories ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories failed: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		categories = append(categories, &c)
	}

	return categories, rows.Err()
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM categories WHERE slug = $1`, slug,
	).Scan(&c.ID, &c.Name, &c.Slug)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByName(ctx context.Context, name string) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM categories WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.Slug)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
