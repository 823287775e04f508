package secrets

import (
	"context"
	"errors"
)

// ErrSecretNotFound is returned by providers when a key has no value.
var ErrSecretNotFound = errors.New("secret not found")

// SecretsProvider resolves credentials by key (env, AWS Secrets Manager).
type SecretsProvider interface {
	GetSecret(ctx context.Context, key string) (string, error)
	Close() error
	Type() string
}
