package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// secretsManagerAPI is the subset of the Secrets Manager client we call.
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsProvider implements SecretsProvider using AWS Secrets Manager
type AWSSecretsProvider struct {
	client secretsManagerAPI
	prefix string
}

var _ SecretsProvider = (*AWSSecretsProvider)(nil)

// NewAWSSecretsProvider creates a new AWS Secrets Manager provider
func NewAWSSecretsProvider(ctx context.Context, region, prefix string) (*AWSSecretsProvider, error) {
	if region == "" {
		return nil, fmt.Errorf("region is required for AWS Secrets Manager")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSecretsProvider{
		client: secretsmanager.NewFromConfig(cfg),
		prefix: prefix,
	}, nil
}

// GetSecret retrieves a secret from AWS Secrets Manager. With a prefix set the
// prefixed name is tried first, then the bare key.
func (a *AWSSecretsProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if a.prefix != "" {
		value, err := a.getSecretValue(ctx, a.prefix+key)
		if err == nil || !errors.Is(err, ErrSecretNotFound) {
			return value, err
		}
	}
	return a.getSecretValue(ctx, key)
}

func (a *AWSSecretsProvider) getSecretValue(ctx context.Context, name string) (string, error) {
	result, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w in AWS Secrets Manager: %s", ErrSecretNotFound, name)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}

	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	return *result.SecretString, nil
}

func (a *AWSSecretsProvider) Type() string {
	return "aws-sm"
}

// Close cleans up resources (no-op for AWS provider)
func (a *AWSSecretsProvider) Close() error {
	return nil
}
