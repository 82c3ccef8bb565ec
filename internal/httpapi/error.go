package httpapi

import (
	"errors"
	"net/http"

	"github.com/09junaid/full-ecommerce/internal/category"
	"github.com/09junaid/full-ecommerce/internal/contact"
	"github.com/09junaid/full-ecommerce/internal/logger"
	"github.com/09junaid/full-ecommerce/internal/order"
	"github.com/09junaid/full-ecommerce/internal/payment"
	"github.com/09junaid/full-ecommerce/internal/product"
	"github.com/09junaid/full-ecommerce/internal/user"

	"go.uber.org/zap"
)

// respondError maps domain errors onto HTTP statuses. Anything unmapped is a
// 500 with a generic message so internals never leak to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var gwErr *payment.GatewayError
	var coErr *order.CheckoutError

	switch {
	case errors.Is(err, user.ErrInvalidLogin), errors.Is(err, user.ErrInvalidToken):
		fail(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, order.ErrUnauthorized):
		fail(w, http.StatusForbidden, "Access denied")

	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, category.ErrCategoryNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		fail(w, http.StatusNotFound, err.Error())

	case errors.Is(err, user.ErrEmailExists),
		errors.Is(err, category.ErrCategoryExists),
		errors.Is(err, category.ErrEmptyName),
		errors.Is(err, product.ErrInvalidProduct),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrMissingCheckoutKey),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, contact.ErrMissingFields),
		errors.Is(err, contact.ErrInvalidEmail):
		fail(w, http.StatusBadRequest, err.Error())

	case errors.As(err, &gwErr):
		logger.FromCtx(r.Context()).Error("payment gateway error", zap.Error(err))
		fail(w, http.StatusBadGateway, "Payment provider unavailable")

	case errors.As(err, &coErr):
		// checkout stage failures that don't wrap a mapped error
		logger.FromCtx(r.Context()).Error("checkout failed",
			zap.String("stage", coErr.Stage), zap.Error(err))
		fail(w, http.StatusInternalServerError, "Checkout could not be completed")

	default:
		logger.FromCtx(r.Context()).Error("unhandled error", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Something went wrong")
	}
}
