package payment

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// StripeOptions configures how the Stripe API is reached.
type StripeOptions struct {
	// URL overrides the API base URL (stripe-mock, tests). Empty means api.stripe.com.
	URL string
	// Timeout bounds each HTTP call. Zero keeps stripe-go's default.
	Timeout time.Duration
	Logger  stripe.LeveledLoggerInterface
}

// StripeProvider creates payment intents through the Stripe API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider returns a provider authenticated with key. Network
// retries are disabled: a failed call is reported to the caller as is.
func NewStripeProvider(key string, opts StripeOptions) *StripeProvider {
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
	}
	if opts.URL != "" {
		cfg.URL = stripe.String(opts.URL)
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger != nil {
		cfg.LeveledLogger = opts.Logger
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	backends := &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	}

	return &StripeProvider{api: client.New(key, backends)}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, request *IntentRequest) (*IntentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(request.Amount),
		Currency:           stripe.String(request.Currency),
		PaymentMethodTypes: stripe.StringSlice(request.PaymentMethodTypes),
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	return &IntentResponse{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// KeySource supplies the Stripe API key.
type KeySource interface {
	Secret(ctx context.Context) (string, error)
}

// LazyStripe builds a StripeProvider on first use from a key resolved at
// invocation time. A successfully built provider is reused by later
// invocations; a failed key lookup is retried on the next call.
type LazyStripe struct {
	keys KeySource
	opts StripeOptions

	mu       sync.Mutex
	provider *StripeProvider
}

func NewLazyStripe(keys KeySource, opts StripeOptions) *LazyStripe {
	return &LazyStripe{keys: keys, opts: opts}
}

func (l *LazyStripe) CreateIntent(ctx context.Context, request *IntentRequest) (*IntentResponse, error) {
	provider, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return provider.CreateIntent(ctx, request)
}

func (l *LazyStripe) get(ctx context.Context) (*StripeProvider, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.provider != nil {
		return l.provider, nil
	}

	key, err := l.keys.Secret(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredential, err)
	}

	l.provider = NewStripeProvider(key, l.opts)
	return l.provider, nil
}
