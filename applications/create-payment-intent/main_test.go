package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	appconfig "github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/config"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/errreport"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func localConfig(stripeURL string) *appconfig.Config {
	cfg := appconfig.Default()
	cfg.Env = appconfig.EnvLocal
	cfg.StripeSecretEnv = "TEST_CREATE_PAYMENT_INTENT_KEY"
	cfg.StripeAPIURL = stripeURL
	cfg.StripeTimeout = 5 * time.Second
	return cfg
}

func post(body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		Body: body,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodPost},
		},
	}
}

func TestHandler(t *testing.T) {
	stripeAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test_local" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "Invalid API Key provided"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "pi_abc", "object": "payment_intent", "client_secret": "pi_abc_secret_xyz"}`))
	}))
	defer stripeAPI.Close()

	t.Setenv("TEST_CREATE_PAYMENT_INTENT_KEY", "sk_test_local")
	logger, _ := logtest.NewNullLogger()

	h, err := newHandler(context.Background(), localConfig(stripeAPI.URL), logger)
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), post(`{"amount": 500, "currency": "eur"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, result.StatusCode)
	require.JSONEq(t, `{"clientSecret": "pi_abc_secret_xyz"}`, result.Body)
}

func TestHandler_MissingKey(t *testing.T) {
	t.Setenv("TEST_CREATE_PAYMENT_INTENT_KEY", "")
	logger, hook := logtest.NewNullLogger()

	h, err := newHandler(context.Background(), localConfig("http://127.0.0.1:1"), logger)
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), post(`{"amount": 500, "currency": "eur"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, result.StatusCode)
	require.Equal(t, "Failed to create PaymentIntent", result.Body)
	require.Equal(t, "credential", hook.LastEntry().Data["failure"])
}

func TestHandler_ProcessorErrorLoggedOnce(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusPaymentRequired} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			stripeAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				w.Write([]byte(`{"error": {"type": "api_error", "message": "Something went wrong."}}`))
			}))
			defer stripeAPI.Close()

			t.Setenv("TEST_CREATE_PAYMENT_INTENT_KEY", "sk_test_local")
			logger, hook := logtest.NewNullLogger()

			h, err := newHandler(context.Background(), localConfig(stripeAPI.URL), logger)
			require.NoError(t, err)

			result, err := h.Handle(context.Background(), post(`{"amount": 2000, "currency": "usd"}`))
			require.NoError(t, err)
			require.Equal(t, http.StatusInternalServerError, result.StatusCode)

			errorEntries := 0
			for _, entry := range hook.AllEntries() {
				require.NotEqual(t, logrus.InfoLevel, entry.Level, entry.Message)
				if entry.Level == logrus.ErrorLevel {
					errorEntries++
				}
			}
			require.Equal(t, 1, errorEntries)
			require.Equal(t, "Stripe error", hook.LastEntry().Message)
		})
	}
}

func TestNewReporter(t *testing.T) {
	cfg := appconfig.Default()

	reporter, err := newReporter(cfg)
	require.NoError(t, err)
	require.IsType(t, errreport.Nop{}, reporter)

	cfg.SentryDSN = "https://public@example.com/1"
	reporter, err = newReporter(cfg)
	require.NoError(t, err)
	require.IsType(t, &errreport.Sentry{}, reporter)
}
