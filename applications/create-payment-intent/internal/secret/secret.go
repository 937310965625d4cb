// Package secret resolves the payment processor API key at invocation time.
package secret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

var ErrEmptySecret = errors.New("secret: value is empty")

// Provider supplies an opaque secret string.
type Provider interface {
	Secret(ctx context.Context) (string, error)
}

// SecretsManagerAPI is the subset of *secretsmanager.Client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager reads a secret from AWS Secrets Manager. When Key is set the
// secret string is treated as a JSON object and Key selects the value.
type SecretsManager struct {
	client   SecretsManagerAPI
	secretID string
	key      string
}

func NewSecretsManager(client SecretsManagerAPI, secretID, key string) *SecretsManager {
	return &SecretsManager{client: client, secretID: secretID, key: key}
}

func (s *SecretsManager) Secret(ctx context.Context) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return "", fmt.Errorf("secret %s: get secret value: %w", s.secretID, err)
	}

	value := aws.ToString(out.SecretString)
	if value == "" && len(out.SecretBinary) > 0 {
		value = string(out.SecretBinary)
	}

	if s.key != "" {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(value), &fields); err != nil {
			return "", fmt.Errorf("secret %s: parse JSON: %w", s.secretID, err)
		}
		value = ""
		if field, ok := fields[s.key]; ok {
			if err := json.Unmarshal(field, &value); err != nil {
				return "", fmt.Errorf("secret %s: field %s: %w", s.secretID, s.key, err)
			}
		}
	}

	if value == "" {
		return "", fmt.Errorf("secret %s: %w", s.secretID, ErrEmptySecret)
	}
	return value, nil
}

// Env reads the secret from an environment variable. Used for local runs.
type Env struct {
	Name string
}

func (e Env) Secret(ctx context.Context) (string, error) {
	value := os.Getenv(e.Name)
	if value == "" {
		return "", fmt.Errorf("environment variable %s: %w", e.Name, ErrEmptySecret)
	}
	return value, nil
}
