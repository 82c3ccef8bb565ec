package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	ListAll(ctx context.Context) ([]User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u User) (User, error) {
	log := logger.FromCtx(ctx)

	query := `
		INSERT INTO users (name, email, password, phone, address, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		u.Name, u.Email, u.Password, u.Phone, u.Address, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		log.Error("db: failed to insert user",
			zap.String("email", u.Email),
			zap.Error(err),
		)
		return User{}, err
	}

	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, phone, address, role, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, phone, address, role, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (r *repository) ListAll(ctx context.Context) ([]User, error) {
	log := logger.FromCtx(ctx)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, password, phone, address, role, created_at, updated_at
		 FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		log.Error("db: failed to list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			log.Error("db: user row scan failed", zap.Error(err))
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
