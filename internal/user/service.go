package user

import (
	"context"
	"strings"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"go.uber.org/zap"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (User, error)
	Login(ctx context.Context, email, password string) (string, User, error)
	GetByID(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

type service struct {
	repo   Repository
	tokens *TokenIssuer
}

func NewService(repo Repository, tokens *TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (User, error) {
	log := logger.FromCtx(ctx)

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return User{}, err
	}

	u, err := s.repo.Create(ctx, User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashed,
		Phone:    input.Phone,
		Address:  input.Address,
		Role:     RoleCustomer,
	})
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return User{}, ErrEmailExists
		}
		log.Error("failed to create user", zap.String("email", input.Email), zap.Error(err))
		return User{}, err
	}

	log.Info("user registered",
		zap.String("user_id", u.ID),
		zap.String("email", u.Email),
	)

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, User, error) {
	log := logger.FromCtx(ctx)

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		log.Info("login failed: email not found", zap.String("email", email))
		return "", User{}, ErrInvalidLogin
	}

	if !CheckPasswordHash(password, u.Password) {
		log.Info("login failed: password mismatch", zap.String("email", email))
		return "", User{}, ErrInvalidLogin
	}

	token, err := s.tokens.Generate(u)
	if err != nil {
		log.Error("failed to sign token", zap.String("user_id", u.ID), zap.Error(err))
		return "", User{}, err
	}

	return token, u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListAll(ctx)
}
