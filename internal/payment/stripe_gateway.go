package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.stripe.com"

type stripeGateway struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ----------------- Constructor -----------------

func NewStripeGateway(apiKey string) Gateway {
	if apiKey == "" {
		logger.L().Warn("Stripe API key is empty")
	}

	return &stripeGateway{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewStripeGatewayWithBaseURL points the adapter at a non-default host.
// Used by tests.
func NewStripeGatewayWithBaseURL(apiKey, baseURL string) Gateway {
	g := NewStripeGateway(apiKey).(*stripeGateway)
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

// ----------------- CreateIntent -----------------

func (s *stripeGateway) CreateIntent(
	ctx context.Context,
	amountMinorUnits int64,
	currency string,
	metadata map[string]string,
	idempotencyKey string,
) (*Intent, error) {

	log := logger.FromCtx(ctx).With(
		zap.Int64("amount", amountMinorUnits),
		zap.String("currency", currency),
	)

	if amountMinorUnits <= 0 {
		return nil, &GatewayError{Err: fmt.Errorf("amount must be positive, got %d", amountMinorUnits)}
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinorUnits, 10))
	form.Set("currency", currency)
	form.Add("payment_method_types[]", "card")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, &GatewayError{Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	log.Info("Creating payment intent")

	intent, err := s.do(req)
	if err != nil {
		log.Error("Payment intent creation failed", zap.Error(err))
		return nil, err
	}

	log.Info("Payment intent created",
		zap.String("intent_id", intent.ID),
		zap.String("status", intent.Status),
	)
	return intent, nil
}

// ----------------- GetIntent -----------------

func (s *stripeGateway) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	log := logger.FromCtx(ctx).With(zap.String("intent_id", intentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/payment_intents/%s", s.baseURL, intentID), nil)
	if err != nil {
		log.Error("Failed building request", zap.Error(err))
		return nil, &GatewayError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	intent, err := s.do(req)
	if err != nil {
		log.Error("Payment intent lookup failed", zap.Error(err))
		return nil, err
	}

	return intent, nil
}

// ----------------- CancelIntent -----------------

func (s *stripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	log := logger.FromCtx(ctx).With(zap.String("intent_id", intentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/payment_intents/%s/cancel", s.baseURL, intentID), nil)
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return &GatewayError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	if _, err := s.do(req); err != nil {
		log.Error("Payment intent cancel failed", zap.Error(err))
		return err
	}

	log.Info("Payment intent cancelled")
	return nil
}

// do executes the request and decodes an intent from a 2xx response.
func (s *stripeGateway) do(req *http.Request) (*Intent, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var intent Intent
	if err := json.Unmarshal(bodyBytes, &intent); err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("failed decoding response: %w", err)}
	}

	return &intent, nil
}
