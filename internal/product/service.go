package product

import (
	"context"

	"github.com/09junaid/full-ecommerce/internal/category"
	"github.com/09junaid/full-ecommerce/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, input CreateInput) (*Product, error)
	Update(ctx context.Context, id string, input CreateInput) (*Product, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *string, limit, page *int32) ([]*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	ListByCategorySlug(ctx context.Context, slug string) ([]*Product, error)
	PricesFor(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func validate(input CreateInput) error {
	if input.Name == "" || input.CategoryID == "" {
		return ErrInvalidProduct
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return ErrInvalidProduct
	}
	if input.Quantity < 0 {
		return ErrInvalidProduct
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
		zap.String("name", input.Name),
	)

	if err := validate(input); err != nil {
		log.Warn("create product validation failed")
		return nil, err
	}

	p, err := s.repo.Create(ctx, &Product{
		Name:        input.Name,
		Slug:        category.Slugify(input.Name),
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		Quantity:    input.Quantity,
		Shipping:    input.Shipping,
	})
	if err != nil {
		log.Error("failed to create product", zap.Error(err))
		return nil, err
	}

	return p, nil
}

func (s *service) Update(ctx context.Context, id string, input CreateInput) (*Product, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, &Product{
		ID:          id,
		Name:        input.Name,
		Slug:        category.Slugify(input.Name),
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		Quantity:    input.Quantity,
		Shipping:    input.Shipping,
	})
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) List(ctx context.Context, filter *string, limit, page *int32) ([]*Product, error) {
	return s.repo.List(ctx, filter, limit, page)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) ListByCategorySlug(ctx context.Context, slug string) ([]*Product, error) {
	return s.repo.ListByCategorySlug(ctx, slug)
}

func (s *service) PricesFor(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	return s.repo.PricesFor(ctx, productIDs)
}
