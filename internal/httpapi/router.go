package httpapi

import (
	"net/http"

	"github.com/09junaid/full-ecommerce/internal/cart"
	"github.com/09junaid/full-ecommerce/internal/category"
	"github.com/09junaid/full-ecommerce/internal/contact"
	"github.com/09junaid/full-ecommerce/internal/logger"
	"github.com/09junaid/full-ecommerce/internal/metrics"
	"github.com/09junaid/full-ecommerce/internal/middleware"
	"github.com/09junaid/full-ecommerce/internal/order"
	"github.com/09junaid/full-ecommerce/internal/product"
	"github.com/09junaid/full-ecommerce/internal/user"

	"github.com/go-chi/chi/v5"
)

// Handlers bundles every service the REST surface exposes.
type Handlers struct {
	Users      user.Service
	Tokens     *user.TokenIssuer
	Categories category.Service
	Products   product.Service
	Carts      cart.Store
	Orders     order.Service
	Contacts   contact.Service
}

func NewRouter(h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.RateLimit)

	signedIn := middleware.RequireSignIn(h.Tokens)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		ok(w, http.StatusOK, envelope{"message": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)

			r.Group(func(r chi.Router) {
				r.Use(signedIn)
				r.Get("/user-auth", h.userAuth)
				r.Get("/user-order", h.listMyOrders)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Get("/admin-auth", h.adminAuth)
					r.Get("/get-all-users", h.listUsers)
				})
			})
		})

		r.Route("/category", func(r chi.Router) {
			r.Get("/get-catagory", h.listCategories)
			r.Get("/single-catagory/{slug}", h.getCategory)

			r.Group(func(r chi.Router) {
				r.Use(signedIn, middleware.RequireAdmin)
				r.Post("/create-category", h.createCategory)
				r.Put("/update-category/{id}", h.updateCategory)
				r.Delete("/delete-catagory/{id}", h.deleteCategory)
			})
		})

		r.Route("/product", func(r chi.Router) {
			r.Get("/get-product", h.listProducts)
			r.Get("/single-product/{slug}", h.getProduct)
			r.Get("/product-category/{slug}", h.listProductsByCategory)

			r.Group(func(r chi.Router) {
				r.Use(signedIn, middleware.RequireAdmin)
				r.Post("/create-product", h.createProduct)
				r.Put("/update-product/{pid}", h.updateProduct)
				r.Delete("/delete-product/{pid}", h.deleteProduct)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(signedIn)
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/items", h.addCartItem)
			r.Delete("/items/{productID}", h.removeCartItem)
		})

		r.With(signedIn).Post("/payment/create-payment", h.createPayment)

		r.Route("/order", func(r chi.Router) {
			r.Use(signedIn)
			r.Post("/my-order", h.completeOrder)
			r.Get("/all-orders", h.listMyOrders)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/get-all-orders", h.listAllOrders)
				r.Put("/order-status/{orderId}", h.updateOrderStatus)
			})
		})

		r.Route("/contact", func(r chi.Router) {
			r.Post("/user-contact", h.submitContact)
			r.With(signedIn, middleware.RequireAdmin).Get("/get-contact", h.listContacts)
		})
	})

	return r
}
