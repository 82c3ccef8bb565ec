package order

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func orderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "buyer_name", "buyer_email", "status",
		"checkout_key", "client_secret", "intent_id", "amount_minor", "currency",
		"provider_status", "created_at", "updated_at",
	})
}

func TestRepository_CreatePending(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO orders`).
			WithArgs("o-1", "u-1", "Alice", "alice@example.com", StatusCheckoutPending,
				"ck-1", int64(5550), "usd").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`INSERT INTO order_products`).
			WithArgs("o-1", "p-1", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO order_products`).
			WithArgs("o-1", "p-2", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CreatePending(context.Background(), &Order{
			ID: "o-1", UserID: "u-1", BuyerName: "Alice", BuyerEmail: "alice@example.com",
			Status: StatusCheckoutPending, CheckoutKey: "ck-1",
			ProductIDs: []string{"p-1", "p-2"},
			Payment:    PaymentSnapshot{AmountMinor: 5550, Currency: "usd"},
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ProductInsertFailureRollsBack", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`INSERT INTO order_products`).
			WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		err := repo.CreatePending(context.Background(), &Order{
			ID: "o-1", Status: StatusCheckoutPending,
			ProductIDs: []string{"p-1"},
		})

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_AttachIntent(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs("o-1", "pi_1", "pi_1_secret", "requires_payment_method", StatusAwaitingPayment).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AttachIntent(context.Background(), "o-1", "pi_1", "pi_1_secret", "requires_payment_method")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Confirm(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE orders`).
			WithArgs("o-1", StatusPending, "succeeded", StatusAwaitingPayment).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Confirm(context.Background(), "o-1", "succeeded"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotAwaitingPayment", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE orders`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Confirm(context.Background(), "o-1", "succeeded")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_UpdateStatus(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		mock.ExpectExec(`UPDATE orders SET status`).
			WithArgs("o-1", StatusProcessing).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id`).
			WithArgs("o-1").
			WillReturnRows(orderRows().AddRow(
				"o-1", "u-1", "Alice", "alice@example.com", "Processing",
				"ck-1", "pi_1_secret", "pi_1", int64(5550), "usd",
				"succeeded", now, now,
			))
		mock.ExpectQuery(`SELECT order_id, product_id FROM order_products`).
			WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id"}).
				AddRow("o-1", "p-1").
				AddRow("o-1", "p-2"))

		o, err := repo.UpdateStatus(context.Background(), "o-1", StatusProcessing)

		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, o.Status)
		assert.Equal(t, []string{"p-1", "p-2"}, o.ProductIDs)
	})

	t.Run("MissingOrder", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE orders SET status`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.UpdateStatus(context.Background(), "nope", StatusProcessing)

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_Get(t *testing.T) {
	t.Run("NullPaymentColumns", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		// a CheckoutPending order has no intent yet
		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id`).
			WithArgs("o-1").
			WillReturnRows(orderRows().AddRow(
				"o-1", "u-1", "Alice", "alice@example.com", "CheckoutPending",
				"ck-1", nil, nil, int64(5550), "usd", nil, now, now,
			))
		mock.ExpectQuery(`SELECT order_id, product_id FROM order_products`).
			WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id"}))

		o, err := repo.Get(context.Background(), "o-1")

		require.NoError(t, err)
		assert.Empty(t, o.ClientSecret)
		assert.Empty(t, o.Payment.IntentID)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id`).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "nope")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_GetByCheckoutKey(t *testing.T) {
	t.Run("LiveAttempt", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM orders\s+WHERE user_id = \$1 AND checkout_key = \$2 AND status NOT IN`).
			WithArgs("u-1", "ck-1", StatusCancelled, StatusRefundRequired).
			WillReturnRows(orderRows().AddRow(
				"o-1", "u-1", "Alice", "alice@example.com", "AwaitingPayment",
				"ck-1", "pi_1_secret", "pi_1", int64(5550), "usd",
				"requires_payment_method", now, now,
			))

		o, err := repo.GetByCheckoutKey(context.Background(), "u-1", "ck-1")

		require.NoError(t, err)
		assert.Equal(t, "pi_1_secret", o.ClientSecret)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	// a Cancelled attempt releases its key: the lookup reports not-found so
	// a retry can start over
	t.Run("FailedAttemptReleasesKey", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT (.+) FROM orders\s+WHERE user_id = \$1 AND checkout_key = \$2 AND status NOT IN`).
			WithArgs("u-1", "ck-1", StatusCancelled, StatusRefundRequired).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByCheckoutKey(context.Background(), "u-1", "ck-1")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_ListStaleCheckouts(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	cutoff := now.Add(-15 * time.Minute)

	mock.ExpectQuery(`SELECT (.+) FROM orders`).
		WithArgs(StatusCheckoutPending, StatusAwaitingPayment, cutoff).
		WillReturnRows(orderRows().
			AddRow("o-1", "u-1", "Alice", "alice@example.com", "CheckoutPending",
				"ck-1", nil, nil, int64(5550), "usd", nil, now, now).
			AddRow("o-2", "u-2", "Bob", "bob@example.com", "AwaitingPayment",
				"ck-2", "s", "pi_2", int64(1000), "usd", "requires_payment_method", now, now))
	mock.ExpectQuery(`SELECT order_id, product_id FROM order_products`).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id"}).
			AddRow("o-1", "p-1").
			AddRow("o-2", "p-2"))

	orders, err := repo.ListStaleCheckouts(context.Background(), cutoff)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, []string{"p-1"}, orders[0].ProductIDs)
	assert.Equal(t, []string{"p-2"}, orders[1].ProductIDs)
}
