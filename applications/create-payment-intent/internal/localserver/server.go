// Package localserver runs a Lambda HTTP handler as a plain web server for
// local development (ENV=LOCAL).
package localserver

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// HandlerFunc is the signature of a Lambda function URL / HTTP API handler.
type HandlerFunc func(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// NewRouter routes every method on "/" to fn, so method checks stay in fn.
func NewRouter(fn HandlerFunc, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.HandleFunc("/", Adapt(fn, log))
	return r
}

// Adapt converts net/http requests into Lambda events and writes the
// handler's response back.
func Adapt(fn HandlerFunc, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := ToEvent(r)
		if err != nil {
			log.WithError(err).Error("failed to read request body")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		response, err := fn(r.Context(), event)
		if err != nil {
			log.WithError(err).Error("Handler error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		for key, value := range response.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(response.StatusCode)

		body := []byte(response.Body)
		if response.IsBase64Encoded {
			if body, err = base64.StdEncoding.DecodeString(response.Body); err != nil {
				log.WithError(err).Error("invalid base64 response body")
				return
			}
		}
		w.Write(body)
	}
}

// ToEvent builds the payload format 2.0 event a function URL would deliver.
func ToEvent(r *http.Request) (events.APIGatewayV2HTTPRequest, error) {
	headers := make(map[string]string, len(r.Header))
	for key, values := range r.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ",")
	}

	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		query[key] = strings.Join(values, ",")
	}

	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return events.APIGatewayV2HTTPRequest{}, err
		}
		body = b
	}

	event := events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              "$default",
		RawPath:               r.URL.Path,
		RawQueryString:        r.URL.RawQuery,
		Headers:               headers,
		QueryStringParameters: query,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: middleware.GetReqID(r.Context()),
			TimeEpoch: time.Now().UnixMilli(),
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    r.Method,
				Path:      r.URL.Path,
				Protocol:  r.Proto,
				SourceIP:  sourceIP(r.RemoteAddr),
				UserAgent: r.UserAgent(),
			},
		},
	}

	// Lambda base64-encodes bodies that are not valid text.
	if utf8.Valid(body) {
		event.Body = string(body)
	} else {
		event.Body = base64.StdEncoding.EncodeToString(body)
		event.IsBase64Encoded = true
	}
	return event, nil
}

func sourceIP(remoteAddr string) string {
	if i := strings.LastIndex(remoteAddr, ":"); i > 0 {
		return strings.Trim(remoteAddr[:i], "[]")
	}
	return remoteAddr
}
