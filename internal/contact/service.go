package contact

import (
	"context"
	"errors"
	"strings"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrMissingFields = errors.New("name, email, subject, message and location are required")
	ErrInvalidEmail  = errors.New("invalid email address")
)

type SubmitInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*Message, error)
	ListAll(ctx context.Context) ([]*Message, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*Message, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SubmitContact"),
	)

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Message)
	location := strings.TrimSpace(input.Location)

	if name == "" || email == "" || subject == "" || body == "" || location == "" {
		log.Warn("contact submission validation failed: missing fields")
		return nil, ErrMissingFields
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	m, err := s.repo.Create(ctx, Message{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		Subject:  subject,
		Message:  body,
		Location: location,
	})
	if err != nil {
		log.Error("failed to store contact message", zap.Error(err))
		return nil, err
	}

	log.Info("contact message received", zap.String("message_id", m.ID))
	return m, nil
}

func (s *service) ListAll(ctx context.Context) ([]*Message, error) {
	return s.repo.ListAll(ctx)
}
