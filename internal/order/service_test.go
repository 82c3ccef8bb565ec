package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/09junaid/full-ecommerce/internal/cart"
	"github.com/09junaid/full-ecommerce/internal/metrics"
	"github.com/09junaid/full-ecommerce/internal/payment"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreatePending(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) AttachIntent(ctx context.Context, orderID, intentID, clientSecret, providerStatus string) error {
	args := m.Called(ctx, orderID, intentID, clientSecret, providerStatus)
	return args.Error(0)
}

func (m *MockRepository) Confirm(ctx context.Context, orderID, providerStatus string) error {
	args := m.Called(ctx, orderID, providerStatus)
	return args.Error(0)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, orderID string, status OrderStatus) (*Order, error) {
	args := m.Called(ctx, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByCheckoutKey(ctx context.Context, userID, key string) (*Order, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetByIntentID(ctx context.Context, intentID string) (*Order, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]*Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) ListStaleCheckouts(ctx context.Context, olderThan time.Time) ([]*Order, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string, idempotencyKey string) (*payment.Intent, error) {
	args := m.Called(ctx, amount, currency, metadata, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) CancelIntent(ctx context.Context, intentID string) error {
	args := m.Called(ctx, intentID)
	return args.Error(0)
}

type MockPriceLookup struct {
	mock.Mock
}

func (m *MockPriceLookup) PricesFor(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

type MockCartStore struct {
	mock.Mock
}

func (m *MockCartStore) Load(ctx context.Context, userID string) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartStore) Save(ctx context.Context, userID string, c *cart.Cart) error {
	args := m.Called(ctx, userID, c)
	return args.Error(0)
}

func (m *MockCartStore) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type serviceMocks struct {
	repo    *MockRepository
	gateway *MockGateway
	prices  *MockPriceLookup
	carts   *MockCartStore
}

func newTestService(t *testing.T) (Service, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		repo:    new(MockRepository),
		gateway: new(MockGateway),
		prices:  new(MockPriceLookup),
		carts:   new(MockCartStore),
	}
	cm := metrics.NewCheckoutMetrics(prometheus.NewRegistry())
	return NewService(m.repo, m.gateway, m.prices, m.carts, cm), m
}

var testBuyer = Buyer{ID: "u-1", Name: "Alice", Email: "alice@example.com"}

func testItems() []cart.Item {
	return []cart.Item{
		{ProductID: "p-1", Name: "Notebook", Price: decimal.RequireFromString("20.00")},
		{ProductID: "p-2", Name: "Backpack", Price: decimal.RequireFromString("35.50")},
	}
}

func TestService_StartCheckout(t *testing.T) {
	t.Run("AmountRecomputedFromCatalog", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("GetByCheckoutKey", mock.Anything, "u-1", "ck-1").Return(nil, ErrOrderNotFound)
		// catalog prices win over whatever the cart snapshot carries
		m.prices.On("PricesFor", mock.Anything, []string{"p-1", "p-2"}).Return(map[string]decimal.Decimal{
			"p-1": decimal.RequireFromString("20.00"),
			"p-2": decimal.RequireFromString("35.50"),
		}, nil)
		m.repo.On("CreatePending", mock.Anything, mock.MatchedBy(func(o *Order) bool {
			return o.Status == StatusCheckoutPending &&
				o.CheckoutKey == "ck-1" &&
				o.Payment.AmountMinor == 5550 &&
				o.Payment.Currency == "usd"
		})).Return(nil)
		m.gateway.On("CreateIntent", mock.Anything, int64(5550), "usd", mock.Anything, "ck-1").
			Return(&payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Status: payment.StatusRequiresPaymentMethod}, nil)
		m.repo.On("AttachIntent", mock.Anything, mock.Anything, "pi_1", "pi_1_secret", payment.StatusRequiresPaymentMethod).
			Return(nil)

		secret, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-1")

		require.NoError(t, err)
		assert.Equal(t, "pi_1_secret", secret)
		m.repo.AssertExpectations(t)
		m.gateway.AssertExpectations(t)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.StartCheckout(context.Background(), testBuyer, nil, "ck-1")
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("MissingCheckoutKey", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "")
		assert.ErrorIs(t, err, ErrMissingCheckoutKey)
	})

	t.Run("ReplayedKeyReturnsSameSecret", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("GetByCheckoutKey", mock.Anything, "u-1", "ck-1").Return(&Order{
			ID: "o-1", UserID: "u-1", Status: StatusAwaitingPayment,
			CheckoutKey: "ck-1", ClientSecret: "pi_1_secret",
		}, nil)

		secret, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-1")

		require.NoError(t, err)
		assert.Equal(t, "pi_1_secret", secret)
		// no new order, no second charge
		m.repo.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
		m.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ResumesAttemptWithoutRecordedIntent", func(t *testing.T) {
		svc, m := newTestService(t)

		// a previous attempt persisted the order but died before the intent
		// was recorded; the retry must reuse that row, not insert a second
		m.repo.On("GetByCheckoutKey", mock.Anything, "u-1", "ck-1").Return(&Order{
			ID: "o-1", UserID: "u-1", Status: StatusCheckoutPending,
			CheckoutKey: "ck-1",
			Payment:     PaymentSnapshot{AmountMinor: 5550, Currency: "usd"},
		}, nil)
		m.gateway.On("CreateIntent", mock.Anything, int64(5550), "usd", mock.Anything, "ck-1").
			Return(&payment.Intent{ID: "pi_2", ClientSecret: "pi_2_secret", Status: payment.StatusRequiresPaymentMethod}, nil)
		m.repo.On("AttachIntent", mock.Anything, "o-1", "pi_2", "pi_2_secret", payment.StatusRequiresPaymentMethod).
			Return(nil)

		secret, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-1")

		require.NoError(t, err)
		assert.Equal(t, "pi_2_secret", secret)
		m.repo.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
		m.prices.AssertNotCalled(t, "PricesFor", mock.Anything, mock.Anything)
	})

	t.Run("DifferentKeysCreateIndependentOrders", func(t *testing.T) {
		svc, m := newTestService(t)

		// idempotency is per key, not per cart content: the same cart under
		// a second key is a second independent order and intent
		m.repo.On("GetByCheckoutKey", mock.Anything, "u-1", mock.Anything).Return(nil, ErrOrderNotFound)
		m.prices.On("PricesFor", mock.Anything, mock.Anything).Return(map[string]decimal.Decimal{
			"p-1": decimal.RequireFromString("20.00"),
			"p-2": decimal.RequireFromString("35.50"),
		}, nil)
		m.repo.On("CreatePending", mock.Anything, mock.Anything).Return(nil)
		m.gateway.On("CreateIntent", mock.Anything, int64(5550), "usd", mock.Anything, "ck-1").
			Return(&payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil)
		m.gateway.On("CreateIntent", mock.Anything, int64(5550), "usd", mock.Anything, "ck-2").
			Return(&payment.Intent{ID: "pi_2", ClientSecret: "pi_2_secret"}, nil)
		m.repo.On("AttachIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil)

		first, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-1")
		require.NoError(t, err)
		second, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-2")
		require.NoError(t, err)

		assert.Equal(t, "pi_1_secret", first)
		assert.Equal(t, "pi_2_secret", second)
		m.repo.AssertNumberOfCalls(t, "CreatePending", 2)
		m.gateway.AssertNumberOfCalls(t, "CreateIntent", 2)
	})

	t.Run("RetryAfterFailedAttemptMintsNewIntent", func(t *testing.T) {
		svc, m := newTestService(t)

		// the prior attempt was cancelled at the intent stage; its key is
		// released, so the retry runs the full flow again
		m.repo.On("GetByCheckoutKey", mock.Anything, "u-1", "ck-1").Return(nil, ErrOrderNotFound).Once()
		m.prices.On("PricesFor", mock.Anything, mock.Anything).Return(map[string]decimal.Decimal{
			"p-1": decimal.RequireFromString("20.00"),
			"p-2": decimal.RequireFromString("35.50"),
		}, nil)
		m.repo.On("CreatePending", mock.Anything, mock.Anything).Return(nil).Once()
		m.gateway.On("CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &payment.GatewayError{Status: 503, Body: "upstream"}).Once()
		m.repo.On("UpdateStatus", mock.Anything, mock.Anything, StatusCancelled).Return(&Order{}, nil).Once()

		_, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-1")
		require.Error(t, err)

		// the cancelled row no longer answers the key lookup
		m.repo.On("GetByCheckoutKey", mock.Anything, "u-1", "ck-1").Return(nil, ErrOrderNotFound).Once()
		m.repo.On("CreatePending", mock.Anything, mock.Anything).Return(nil).Once()
		m.gateway.On("CreateIntent", mock.Anything, int64(5550), "usd", mock.Anything, "ck-1").
			Return(&payment.Intent{ID: "pi_2", ClientSecret: "pi_2_secret"}, nil).Once()
		m.repo.On("AttachIntent", mock.Anything, mock.Anything, "pi_2", "pi_2_secret", mock.Anything).
			Return(nil).Once()

		secret, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-1")

		require.NoError(t, err)
		assert.Equal(t, "pi_2_secret", secret)
		m.repo.AssertNumberOfCalls(t, "CreatePending", 2)
	})

	t.Run("OrderPersistedBeforeProcessorCall", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("GetByCheckoutKey", mock.Anything, "u-1", "ck-1").Return(nil, ErrOrderNotFound)
		m.prices.On("PricesFor", mock.Anything, mock.Anything).Return(map[string]decimal.Decimal{
			"p-1": decimal.RequireFromString("20.00"),
			"p-2": decimal.RequireFromString("35.50"),
		}, nil)
		m.repo.On("CreatePending", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-1")

		require.Error(t, err)
		m.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("IntentFailureCancelsPendingOrder", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("GetByCheckoutKey", mock.Anything, "u-1", "ck-1").Return(nil, ErrOrderNotFound)
		m.prices.On("PricesFor", mock.Anything, mock.Anything).Return(map[string]decimal.Decimal{
			"p-1": decimal.RequireFromString("20.00"),
			"p-2": decimal.RequireFromString("35.50"),
		}, nil)
		m.repo.On("CreatePending", mock.Anything, mock.Anything).Return(nil)
		m.gateway.On("CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &payment.GatewayError{Status: 503, Body: "upstream"})
		m.repo.On("UpdateStatus", mock.Anything, mock.Anything, StatusCancelled).Return(&Order{}, nil)

		_, err := svc.StartCheckout(context.Background(), testBuyer, testItems(), "ck-1")

		require.Error(t, err)
		var ce *CheckoutError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, StageIntent, ce.Stage)
		m.repo.AssertCalled(t, "UpdateStatus", mock.Anything, mock.Anything, StatusCancelled)
	})
}

func TestService_CompleteCheckout(t *testing.T) {
	awaiting := func() *Order {
		return &Order{
			ID: "o-1", UserID: "u-1", Status: StatusAwaitingPayment,
			Payment: PaymentSnapshot{AmountMinor: 5550, Currency: "usd", IntentID: "pi_1"},
		}
	}

	t.Run("Success", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("GetByIntentID", mock.Anything, "pi_1").Return(awaiting(), nil)
		m.gateway.On("GetIntent", mock.Anything, "pi_1").
			Return(&payment.Intent{ID: "pi_1", Status: payment.StatusSucceeded}, nil)
		m.repo.On("Confirm", mock.Anything, "o-1", payment.StatusSucceeded).Return(nil)
		m.carts.On("Clear", mock.Anything, "u-1").Return(nil)
		confirmed := awaiting()
		confirmed.Status = StatusPending
		m.repo.On("Get", mock.Anything, "o-1").Return(confirmed, nil)

		o, err := svc.CompleteCheckout(context.Background(), testBuyer, "pi_1")

		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		m.carts.AssertCalled(t, "Clear", mock.Anything, "u-1")
	})

	t.Run("WrongBuyer", func(t *testing.T) {
		svc, m := newTestService(t)
		m.repo.On("GetByIntentID", mock.Anything, "pi_1").Return(awaiting(), nil)

		_, err := svc.CompleteCheckout(context.Background(), Buyer{ID: "u-2"}, "pi_1")

		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("PaymentNotSucceeded", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("GetByIntentID", mock.Anything, "pi_1").Return(awaiting(), nil)
		m.gateway.On("GetIntent", mock.Anything, "pi_1").
			Return(&payment.Intent{ID: "pi_1", Status: payment.StatusRequiresPaymentMethod}, nil)

		_, err := svc.CompleteCheckout(context.Background(), testBuyer, "pi_1")

		var ce *CheckoutError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, StageConfirmation, ce.Stage)
		m.repo.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
		m.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	})

	t.Run("ConfirmFailureKeepsCart", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("GetByIntentID", mock.Anything, "pi_1").Return(awaiting(), nil)
		m.gateway.On("GetIntent", mock.Anything, "pi_1").
			Return(&payment.Intent{ID: "pi_1", Status: payment.StatusSucceeded}, nil)
		m.repo.On("Confirm", mock.Anything, "o-1", payment.StatusSucceeded).Return(errors.New("db down"))

		_, err := svc.CompleteCheckout(context.Background(), testBuyer, "pi_1")

		var ce *CheckoutError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, StagePersist, ce.Stage)
		m.carts.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	})

	t.Run("AlreadyConfirmedIsNoOp", func(t *testing.T) {
		svc, m := newTestService(t)

		done := awaiting()
		done.Status = StatusProcessing
		m.repo.On("GetByIntentID", mock.Anything, "pi_1").Return(done, nil)

		o, err := svc.CompleteCheckout(context.Background(), testBuyer, "pi_1")

		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, o.Status)
		m.gateway.AssertNotCalled(t, "GetIntent", mock.Anything, mock.Anything)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	t.Run("ValidTransition", func(t *testing.T) {
		svc, m := newTestService(t)

		m.repo.On("Get", mock.Anything, "o-1").Return(&Order{ID: "o-1", Status: StatusPending}, nil)
		m.repo.On("UpdateStatus", mock.Anything, "o-1", StatusProcessing).
			Return(&Order{ID: "o-1", Status: StatusProcessing}, nil)

		o, err := svc.UpdateStatus(context.Background(), "o-1", "Processing")

		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, o.Status)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.UpdateStatus(context.Background(), "o-1", "Teleported")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		svc, m := newTestService(t)
		m.repo.On("Get", mock.Anything, "o-1").Return(&Order{ID: "o-1", Status: StatusDelivered}, nil)

		_, err := svc.UpdateStatus(context.Background(), "o-1", "Pending")

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("MissingOrder", func(t *testing.T) {
		svc, m := newTestService(t)
		m.repo.On("Get", mock.Anything, "nope").Return(nil, ErrOrderNotFound)

		_, err := svc.UpdateStatus(context.Background(), "nope", "Processing")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestService_GetOrder(t *testing.T) {
	t.Run("OwnOrder", func(t *testing.T) {
		svc, m := newTestService(t)
		m.repo.On("Get", mock.Anything, "o-1").Return(&Order{ID: "o-1", UserID: "u-1"}, nil)

		o, err := svc.GetOrder(context.Background(), testBuyer, "o-1")

		require.NoError(t, err)
		assert.Equal(t, "o-1", o.ID)
	})

	t.Run("ForeignOrder", func(t *testing.T) {
		svc, m := newTestService(t)
		m.repo.On("Get", mock.Anything, "o-1").Return(&Order{ID: "o-1", UserID: "u-9"}, nil)

		_, err := svc.GetOrder(context.Background(), testBuyer, "o-1")

		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}
