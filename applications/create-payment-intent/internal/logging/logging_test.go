package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/k-kazuya0926/my-modern-application-sample/applications/create-payment-intent/internal/logging"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "debug", "json")

	require.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("currency", "usd").Error("Stripe error")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "Stripe error", entry["message"])
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "usd", entry["currency"])
}

func TestNewWithWriter_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "loud", "text")

	require.Equal(t, logrus.InfoLevel, logger.GetLevel())
	require.Contains(t, buf.String(), "unknown log level")
}

func TestDebugOnly(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	d := logging.DebugOnly{Log: logger}
	d.Infof("Requesting %s", "POST /v1/payment_intents")
	d.Warnf("retrying")
	d.Errorf("Request error from Stripe (status %d)", 500)

	require.Len(t, hook.AllEntries(), 3)
	for _, entry := range hook.AllEntries() {
		require.Equal(t, logrus.DebugLevel, entry.Level)
	}
	require.Equal(t, "Request error from Stripe (status 500)", hook.LastEntry().Message)
}
