// Package handler implements the create-payment-intent HTTP function.
package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/errreport"
	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/payment"
	"github.com/sirupsen/logrus"
)

const (
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgMissingFields    = "Missing required fields: amount or currency"
	MsgCreateFailed     = "Failed to create PaymentIntent"
)

// RequestBody is the JSON body accepted by the function.
type RequestBody struct {
	Amount   int64  `json:"amount" validate:"gt=0"`
	Currency string `json:"currency" validate:"required"`
}

type ResponseBody struct {
	ClientSecret string `json:"clientSecret"`
}

type Handler struct {
	payments payment.Provider
	reporter errreport.Reporter
	log      logrus.FieldLogger
	validate *validator.Validate
}

type Option func(*Handler)

func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Handler) { h.log = log }
}

func WithReporter(r errreport.Reporter) Option {
	return func(h *Handler) { h.reporter = r }
}

func New(payments payment.Provider, opts ...Option) *Handler {
	h := &Handler{
		payments: payments,
		reporter: errreport.Nop{},
		log:      logrus.StandardLogger(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle serves one invocation. It always answers with a response and a nil
// error so the runtime never turns a failure into its own 502.
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayV2HTTPRequest) (response events.APIGatewayV2HTTPResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.WithField("panic", fmt.Sprint(r)).Error("Panic occurred")
			response, err = text(http.StatusInternalServerError, MsgCreateFailed), nil
		}
	}()

	if request.RequestContext.HTTP.Method != http.MethodPost {
		return text(http.StatusMethodNotAllowed, MsgMethodNotAllowed), nil
	}

	body, err := h.parseBody(request)
	if err != nil {
		h.log.WithError(err).Info("rejected request body")
		return text(http.StatusBadRequest, MsgMissingFields), nil
	}

	result := payment.Create(ctx, h.payments, payment.NewIntentRequest(body.Amount, body.Currency))
	if !result.OK() {
		h.fail(ctx, body, result)
		return text(http.StatusInternalServerError, MsgCreateFailed), nil
	}

	h.log.WithFields(logrus.Fields{
		"payment_intent": result.Intent.ID,
		"status":         result.Intent.Status,
	}).Debug("PaymentIntent created")

	return jsonResponse(http.StatusOK, ResponseBody{ClientSecret: result.Intent.ClientSecret})
}

// parseBody decodes and validates the body. Wrong JSON types fail the same
// way as missing fields.
func (h *Handler) parseBody(request events.APIGatewayV2HTTPRequest) (*RequestBody, error) {
	raw := []byte(request.Body)
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return nil, fmt.Errorf("base64 decode: %w", err)
		}
		raw = decoded
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	// encoding/json matches struct fields case-insensitively; only the
	// exact "amount" and "currency" keys are accepted.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	var body RequestBody
	if v, ok := fields["amount"]; ok {
		if err := json.Unmarshal(v, &body.Amount); err != nil {
			return nil, fmt.Errorf("amount: %w", err)
		}
	}
	if v, ok := fields["currency"]; ok {
		if err := json.Unmarshal(v, &body.Currency); err != nil {
			return nil, fmt.Errorf("currency: %w", err)
		}
	}
	if err := h.validate.Struct(body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (h *Handler) fail(ctx context.Context, body *RequestBody, result payment.Result) {
	fields := logrus.Fields{
		"failure":  string(result.Failure),
		"amount":   body.Amount,
		"currency": body.Currency,
	}
	for k, v := range payment.Diagnostics(result.Err) {
		fields[k] = v
	}
	h.log.WithFields(fields).WithError(result.Err).Error("Stripe error")

	h.reporter.Report(ctx, result.Err, map[string]string{
		"failure":  string(result.Failure),
		"currency": body.Currency,
	})
}

func text(status int, message string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
		Body: message,
	}
}

func jsonResponse(status int, v interface{}) (events.APIGatewayV2HTTPResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return text(http.StatusInternalServerError, MsgCreateFailed), nil
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: string(b),
	}, nil
}
