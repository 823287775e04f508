package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/sleeautomation/sitehooks/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSecretsProvider(t *testing.T) {
	ctx := context.Background()
	t.Setenv("SITEHOOKS_NOTION_API_KEY", "prefixed")
	t.Setenv("GOOGLE_CREDENTIALS_JSON", "{}")

	p := NewEnvSecretsProvider("SITEHOOKS_")
	v, err := p.GetSecret(ctx, "NOTION_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", v)

	// Falls back to the unprefixed name.
	v, err = p.GetSecret(ctx, "GOOGLE_CREDENTIALS_JSON")
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	_, err = p.GetSecret(ctx, "DOES_NOT_EXIST_ANYWHERE")
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.Equal(t, "env", p.Type())
	assert.NoError(t, p.Close())
}

func TestNewSecretsProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewSecretsProvider(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "env", p.Type())

	p, err = NewSecretsProvider(ctx, &config.SecretsConfig{Driver: "ENV", Prefix: "X_"})
	require.NoError(t, err)
	assert.Equal(t, "env", p.Type())

	_, err = NewSecretsProvider(ctx, &config.SecretsConfig{Driver: "aws"})
	assert.ErrorContains(t, err, "region")

	_, err = NewSecretsProvider(ctx, &config.SecretsConfig{Driver: "vault"})
	assert.ErrorContains(t, err, "unsupported secrets driver")
}

type fakeSecretsManager struct {
	values map[string]string
	err    error
	calls  []string
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	name := aws.ToString(in.SecretId)
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("not found")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestAWSSecretsProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("prefixed first", func(t *testing.T) {
		fake := &fakeSecretsManager{values: map[string]string{"sitehooks/NOTION_API_KEY": "secret_abc"}}
		p := &AWSSecretsProvider{client: fake, prefix: "sitehooks/"}
		v, err := p.GetSecret(ctx, "NOTION_API_KEY")
		require.NoError(t, err)
		assert.Equal(t, "secret_abc", v)
		assert.Equal(t, []string{"sitehooks/NOTION_API_KEY"}, fake.calls)
	})

	t.Run("falls back to bare key", func(t *testing.T) {
		fake := &fakeSecretsManager{values: map[string]string{"NOTION_API_KEY": "bare"}}
		p := &AWSSecretsProvider{client: fake, prefix: "sitehooks/"}
		v, err := p.GetSecret(ctx, "NOTION_API_KEY")
		require.NoError(t, err)
		assert.Equal(t, "bare", v)
		assert.Len(t, fake.calls, 2)
	})

	t.Run("not found", func(t *testing.T) {
		p := &AWSSecretsProvider{client: &fakeSecretsManager{}}
		_, err := p.GetSecret(ctx, "MISSING")
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("transport error is not masked", func(t *testing.T) {
		boom := errors.New("throttled")
		p := &AWSSecretsProvider{client: &fakeSecretsManager{err: boom}, prefix: "p/"}
		_, err := p.GetSecret(ctx, "KEY")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("region required", func(t *testing.T) {
		_, err := NewAWSSecretsProvider(ctx, "", "")
		assert.ErrorContains(t, err, "region is required")
	})
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSecretsManager{values: map[string]string{
		NotionAPIKey:          "from-sm",
		GoogleCredentialsJSON: `{"type":"service_account"}`,
	}}
	p := &AWSSecretsProvider{client: fake}

	cfg := config.Default()
	require.NoError(t, Hydrate(ctx, p, cfg))
	assert.Equal(t, "from-sm", cfg.Notion.APIKey)
	assert.Equal(t, `{"type":"service_account"}`, cfg.Google.CredentialsJSON)

	// Inline values win and a credentials file skips the JSON lookup.
	cfg = config.Default()
	cfg.Notion.APIKey = "inline"
	cfg.Google.CredentialsFile = "sa.json"
	require.NoError(t, Hydrate(ctx, p, cfg))
	assert.Equal(t, "inline", cfg.Notion.APIKey)
	assert.Empty(t, cfg.Google.CredentialsJSON)

	// Missing secrets are tolerated.
	cfg = config.Default()
	require.NoError(t, Hydrate(ctx, &AWSSecretsProvider{client: &fakeSecretsManager{}}, cfg))
	assert.Empty(t, cfg.Notion.APIKey)
}
