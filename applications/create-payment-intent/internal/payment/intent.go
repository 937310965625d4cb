// Package payment creates payment intents at the payment processor.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v75"
)

// PaymentIntent statuses
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusRequiresAction        = "requires_action"
	StatusRequiresCapture       = "requires_capture"
	StatusSucceeded             = "succeeded"
	StatusProcessing            = "processing"
	StatusCanceled              = "canceled"
)

// MethodCard is the only payment method type this function offers.
const MethodCard = "card"

// ErrCredential marks failures caused by the processor API key itself
// (secret not resolvable, key rejected).
var ErrCredential = errors.New("payment: processor credential unavailable")

// ErrNoClientSecret is returned when the processor answers without a client secret.
var ErrNoClientSecret = errors.New("payment: processor returned no client secret")

// IntentRequest is the create-payment-intent call sent to the processor.
type IntentRequest struct {
	Amount             int64
	Currency           string
	PaymentMethodTypes []string
}

// NewIntentRequest returns a request restricted to card payments.
func NewIntentRequest(amount int64, currency string) *IntentRequest {
	return &IntentRequest{
		Amount:             amount,
		Currency:           currency,
		PaymentMethodTypes: []string{MethodCard},
	}
}

type IntentResponse struct {
	ID           string
	ClientSecret string
	Status       string
}

// Provider creates payment intents at a payment processor.
type Provider interface {
	CreateIntent(ctx context.Context, request *IntentRequest) (*IntentResponse, error)
}

// FailureKind classifies why a processor call did not yield a client secret.
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureCredential      FailureKind = "credential"
	FailureRejected        FailureKind = "rejected"
	FailureUnavailable     FailureKind = "unavailable"
	FailureInvalidResponse FailureKind = "invalid_response"
)

// Result is the outcome of one processor call: either Intent is set, or
// Failure and Err describe what went wrong.
type Result struct {
	Intent  *IntentResponse
	Failure FailureKind
	Err     error
}

// OK reports whether the call produced a usable client secret.
func (r Result) OK() bool {
	return r.Failure == FailureNone && r.Intent != nil && r.Intent.ClientSecret != ""
}

// Create calls the provider once and folds the outcome into a Result.
func Create(ctx context.Context, provider Provider, request *IntentRequest) Result {
	intent, err := provider.CreateIntent(ctx, request)
	if err != nil {
		return Result{Failure: Classify(err), Err: err}
	}

	if intent == nil || intent.ClientSecret == "" {
		id := ""
		if intent != nil {
			id = intent.ID
		}
		return Result{
			Intent:  intent,
			Failure: FailureInvalidResponse,
			Err:     fmt.Errorf("intent %q: %w", id, ErrNoClientSecret),
		}
	}

	return Result{Intent: intent}
}

// Classify maps a provider error to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	if errors.Is(err, ErrCredential) {
		return FailureCredential
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusUnauthorized,
			stripeErr.HTTPStatusCode == http.StatusForbidden:
			return FailureCredential
		case stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500:
			return FailureRejected
		}
	}

	return FailureUnavailable
}

// Diagnostics returns processor details of err suitable for log fields.
func Diagnostics(err error) map[string]interface{} {
	fields := map[string]interface{}{}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		fields["stripe_status"] = stripeErr.HTTPStatusCode
		fields["stripe_type"] = string(stripeErr.Type)
		if stripeErr.Code != "" {
			fields["stripe_code"] = string(stripeErr.Code)
		}
		if stripeErr.DeclineCode != "" {
			fields["stripe_decline_code"] = string(stripeErr.DeclineCode)
		}
		if stripeErr.RequestID != "" {
			fields["stripe_request_id"] = stripeErr.RequestID
		}
	}

	return fields
}
