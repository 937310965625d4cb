// Package errreport forwards processor failures to an error tracker.
package errreport

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/getsentry/sentry-go"
)

type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// Nop discards every report.
type Nop struct{}

func (Nop) Report(context.Context, error, map[string]string) {}

// Sentry captures errors with sentry-go. Each capture is flushed before
// Report returns because Lambda freezes the process between invocations.
type Sentry struct {
	hub          *sentry.Hub
	flushTimeout time.Duration
}

func NewSentry(options sentry.ClientOptions) (*Sentry, error) {
	if options.SampleRate == 0 {
		options.SampleRate = 1.0
	}

	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}

	return &Sentry{
		hub:          sentry.NewHub(client, sentry.NewScope()),
		flushTimeout: 2 * time.Second,
	}, nil
}

func (s *Sentry) Report(ctx context.Context, err error, tags map[string]string) {
	hub := s.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			scope.SetTag("aws_request_id", lc.AwsRequestID)
		}
		hub.CaptureException(err)
	})
	hub.Flush(s.flushTimeout)
}
