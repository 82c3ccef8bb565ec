package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	CreatePending(ctx context.Context, o *Order) error
	AttachIntent(ctx context.Context, orderID, intentID, clientSecret, providerStatus string) error
	Confirm(ctx context.Context, orderID, providerStatus string) error
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) (*Order, error)
	Get(ctx context.Context, orderID string) (*Order, error)
	GetByCheckoutKey(ctx context.Context, userID, key string) (*Order, error)
	GetByIntentID(ctx context.Context, intentID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	ListStaleCheckouts(ctx context.Context, olderThan time.Time) ([]*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, buyer_name, buyer_email, status,
	checkout_key, client_secret, intent_id, amount_minor, currency, provider_status,
	created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*Order, error) {
	var o Order
	var clientSecret, intentID, providerStatus sql.NullString
	err := row.Scan(
		&o.ID, &o.UserID, &o.BuyerName, &o.BuyerEmail, &o.Status,
		&o.CheckoutKey, &clientSecret, &intentID, &o.Payment.AmountMinor,
		&o.Payment.Currency, &providerStatus, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.ClientSecret = clientSecret.String
	o.Payment.IntentID = intentID.String
	o.Payment.ProviderStatus = providerStatus.String
	return &o, nil
}

// CreatePending inserts the order row and its product lines in one
// transaction, before the payment processor is ever contacted.
func (r *repository) CreatePending(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders
			(id, user_id, buyer_name, buyer_email, status, checkout_key, amount_minor, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		o.ID, o.UserID, o.BuyerName, o.BuyerEmail, o.Status,
		o.CheckoutKey, o.Payment.AmountMinor, o.Payment.Currency,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("db: insert order failed", zap.Error(err))
		return fmt.Errorf("insert order failed: %w", err)
	}

	for pos, productID := range o.ProductIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_products (order_id, product_id, position) VALUES ($1, $2, $3)`,
			o.ID, productID, pos,
		)
		if err != nil {
			log.Error("db: insert order product failed",
				zap.String("product_id", productID),
				zap.Error(err),
			)
			return fmt.Errorf("insert order product failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	log.Info("pending order created", zap.Int64("amount_minor", o.Payment.AmountMinor))
	return nil
}

func (r *repository) AttachIntent(ctx context.Context, orderID, intentID, clientSecret, providerStatus string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET intent_id = $2, client_secret = $3, provider_status = $4,
		    status = $5, updated_at = NOW()
		WHERE id = $1`,
		orderID, intentID, clientSecret, providerStatus, StatusAwaitingPayment,
	)
	if err != nil {
		return fmt.Errorf("attach intent failed: %w", err)
	}
	return requireAffected(res)
}

// Confirm transitions an awaiting-payment order into the fulfilment pipeline
// with the final provider status snapshot.
func (r *repository) Confirm(ctx context.Context, orderID, providerStatus string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, provider_status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		orderID, StatusPending, providerStatus, StatusAwaitingPayment,
	)
	if err != nil {
		return fmt.Errorf("confirm order failed: %w", err)
	}
	return requireAffected(res)
}

func (r *repository) UpdateStatus(ctx context.Context, orderID string, status OrderStatus) (*Order, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("update status failed: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return r.Get(ctx, orderID)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) Get(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadProducts(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByCheckoutKey returns the live order for an idempotency key. Cancelled
// and RefundRequired attempts are excluded: a failed checkout releases its
// key so a retry can mint a fresh order and intent.
func (r *repository) GetByCheckoutKey(ctx context.Context, userID, key string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 AND checkout_key = $2 AND status NOT IN ($3, $4)`,
		userID, key, StatusCancelled, StatusRefundRequired,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetByIntentID(ctx context.Context, intentID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE intent_id = $1`, intentID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadProducts(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
}

func (r *repository) ListAll(ctx context.Context) ([]*Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`,
	)
}

func (r *repository) ListStaleCheckouts(ctx context.Context, olderThan time.Time) ([]*Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE status IN ($1, $2) AND updated_at < $3
		 ORDER BY updated_at ASC`,
		StatusCheckoutPending, StatusAwaitingPayment, olderThan,
	)
}

func (r *repository) list(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	log := logger.FromCtx(ctx)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("db: list orders failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("db: order row scan failed", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadProducts(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadProducts fills ProductIDs for the given orders, preserving line order.
func (r *repository) loadProducts(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id FROM order_products
		WHERE order_id = ANY($1)
		ORDER BY order_id, position`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("load order products failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID, productID string
		if err := rows.Scan(&orderID, &productID); err != nil {
			return fmt.Errorf("order product scan failed: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.ProductIDs = append(o.ProductIDs, productID)
		}
	}
	return rows.Err()
}
