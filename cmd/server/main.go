package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/09junaid/full-ecommerce/internal/cart"
	"github.com/09junaid/full-ecommerce/internal/category"
	"github.com/09junaid/full-ecommerce/internal/config"
	"github.com/09junaid/full-ecommerce/internal/contact"
	"github.com/09junaid/full-ecommerce/internal/db"
	"github.com/09junaid/full-ecommerce/internal/httpapi"
	"github.com/09junaid/full-ecommerce/internal/logger"
	"github.com/09junaid/full-ecommerce/internal/metrics"
	"github.com/09junaid/full-ecommerce/internal/middleware"
	"github.com/09junaid/full-ecommerce/internal/order"
	"github.com/09junaid/full-ecommerce/internal/payment"
	"github.com/09junaid/full-ecommerce/internal/product"
	"github.com/09junaid/full-ecommerce/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := db.InitDB(cfg)
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	tokens, err := user.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatal("token issuer init failed", zap.Error(err))
	}

	checkoutMetrics := metrics.NewDefaultCheckoutMetrics()

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo, tokens)

	categoryRepo := category.NewRepository(database)
	categorySvc := category.NewService(categoryRepo)

	productRepo := product.NewRepository(database)
	productSvc := product.NewService(productRepo)

	cartStore := cart.NewRedisStore(redisClient)

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, gateway, productSvc, cartStore, checkoutMetrics)

	contactRepo := contact.NewRepository(database)
	contactSvc := contact.NewService(contactRepo)

	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	reconciler := order.NewReconciler(orderRepo, gateway, checkoutMetrics,
		cfg.ReconcileInterval, cfg.ReconcileMaxAge)
	go reconciler.Run(reconcilerCtx)

	var handler http.Handler = httpapi.NewRouter(httpapi.Handlers{
		Users:      userSvc,
		Tokens:     tokens,
		Categories: categorySvc,
		Products:   productSvc,
		Carts:      cartStore,
		Orders:     orderSvc,
		Contacts:   contactSvc,
	})
	handler = middleware.CORS(cfg.ClientURL)(handler)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	stopReconciler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
