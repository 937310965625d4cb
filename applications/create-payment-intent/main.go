// Lambda function that takes an amount and currency, creates a Stripe PaymentIntent and returns its client secret

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/getsentry/sentry-go"
	appconfig "github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/config"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/errreport"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/handler"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/localserver"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/logging"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/payment"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/secret"
	"github.com/sirupsen/logrus"
)

// newKeySource picks where the Stripe API key is read from.
func newKeySource(ctx context.Context, cfg *appconfig.Config) (secret.Provider, error) {
	if cfg.Local() {
		return secret.Env{Name: cfg.StripeSecretEnv}, nil
	}

	// Load AWS config
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	return secret.NewSecretsManager(client, cfg.StripeSecretID, cfg.StripeSecretKeyName), nil
}

func newReporter(cfg *appconfig.Config) (errreport.Reporter, error) {
	if cfg.SentryDSN == "" {
		return errreport.Nop{}, nil
	}
	return errreport.NewSentry(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Env,
	})
}

func newHandler(ctx context.Context, cfg *appconfig.Config, log logrus.FieldLogger) (*handler.Handler, error) {
	keys, err := newKeySource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reporter, err := newReporter(cfg)
	if err != nil {
		return nil, err
	}

	// The Stripe client is built on the first invocation
	payments := payment.NewLazyStripe(keys, payment.StripeOptions{
		URL:     cfg.StripeAPIURL,
		Timeout: cfg.StripeTimeout,
		Logger:  logging.DebugOnly{Log: log.WithField("component", "stripe")},
	})

	return handler.New(payments, handler.WithLogger(log), handler.WithReporter(reporter)), nil
}

func main() {
	cfg, err := appconfig.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	h, err := newHandler(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize handler: %v", err)
	}

	if cfg.Local() {
		// Run as a plain web server
		logger.Infof("listening on %s", cfg.Addr())
		logger.Fatal(http.ListenAndServe(cfg.Addr(), localserver.NewRouter(h.Handle, logger)))
	}

	lambda.Start(h.Handle)
}
