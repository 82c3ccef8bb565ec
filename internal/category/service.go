package category

import (
	"context"
	"errors"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"go.uber.org/zap"
)

// Service defines the business logic for categories.
type Service interface {
	Create(ctx context.Context, name string) (*Category, error)
	Update(ctx context.Context, id, name string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, name string) (*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCategory"),
		zap.String("name", name),
	)

	if name == "" {
		log.Warn("create category validation failed: empty name")
		return nil, ErrEmptyName
	}

	if existing, err := s.repo.GetByName(ctx, name); err == nil && existing != nil {
		log.Info("category already exists", zap.String("category_id", existing.ID))
		return nil, ErrCategoryExists
	} else if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}

	c, err := s.repo.Create(ctx, name, Slugify(name))
	if err != nil {
		log.Error("failed to create category", zap.Error(err))
		return nil, err
	}

	return c, nil
}

func (s *service) Update(ctx context.Context, id, name string) (*Category, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	return s.repo.Update(ctx, id, name, Slugify(name))
}

func (s *service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx)
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) Delete(ctx context.Context, id string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "DeleteCategory"),
		zap.String("category_id", id),
	)

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error("failed to delete category", zap.Error(err))
		return err
	}

	log.Info("category deleted")
	return nil
}
