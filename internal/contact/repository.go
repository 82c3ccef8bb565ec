package contact

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, m Message) (*Message, error)
	ListAll(ctx context.Context) ([]*Message, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m Message) (*Message, error) {
	log := logger.FromCtx(ctx).With(zap.String("email", m.Email))

	query := `
		INSERT INTO contact_messages (id, name, email, subject, message, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, m.ID, m.Name, m.Email, m.Subject, m.Message, m.Location).
		Scan(&m.CreatedAt)
	if err != nil {
		log.Error("db: create contact message failed", zap.Error(err))
		return nil, fmt.Errorf("create contact message failed: %w", err)
	}

	return &m, nil
}

func (r *repository) ListAll(ctx context.Context) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, subject, message, location, created_at
		 FROM contact_messages ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list contact messages failed: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Location, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}
