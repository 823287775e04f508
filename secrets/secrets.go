package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/logger"
)

// Secret keys looked up when the config does not carry the value inline.
const (
	NotionAPIKey          = "NOTION_API_KEY"
	GoogleCredentialsJSON = "GOOGLE_CREDENTIALS_JSON"
)

// NewSecretsProvider creates a secrets provider from configuration
func NewSecretsProvider(ctx context.Context, cfg *config.SecretsConfig) (SecretsProvider, error) {
	if cfg == nil {
		// Default to environment variables
		return NewEnvSecretsProvider(""), nil
	}

	switch strings.ToLower(cfg.Driver) {
	case "", "env":
		return NewEnvSecretsProvider(cfg.Prefix), nil
	case "aws-sm", "aws":
		return NewAWSSecretsProvider(ctx, cfg.Region, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unsupported secrets driver: %s", cfg.Driver)
	}
}

// Hydrate fills credentials that are missing from cfg using p. A secret that
// does not exist is left empty: the upstream service then rejects the call,
// which is where a missing credential is reported.
func Hydrate(ctx context.Context, p SecretsProvider, cfg *config.Config) error {
	if err := fill(ctx, p, &cfg.Notion.APIKey, NotionAPIKey); err != nil {
		return err
	}
	if cfg.Google.CredentialsFile == "" {
		if err := fill(ctx, p, &cfg.Google.CredentialsJSON, GoogleCredentialsJSON); err != nil {
			return err
		}
	}
	return nil
}

func fill(ctx context.Context, p SecretsProvider, dst *string, key string) error {
	if *dst != "" {
		return nil
	}
	v, err := p.GetSecret(ctx, key)
	switch {
	case err == nil:
		*dst = v
	case errors.Is(err, ErrSecretNotFound):
		logger.Debug("secret %s not found via %s provider", key, p.Type())
	default:
		return fmt.Errorf("resolve %s: %w", key, err)
	}
	return nil
}
