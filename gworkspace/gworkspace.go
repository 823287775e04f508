// Package gworkspace builds authenticated Google Drive, Sheets and Gmail
// clients from a service account.
package gworkspace

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sleeautomation/sitehooks/config"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account. Drive is only searched, never
// written.
var Scopes = []string{
	drive.DriveMetadataReadonlyScope,
	sheets.SpreadsheetsScope,
	gmail.GmailSendScope,
}

// Services groups the clients the intake path needs.
type Services struct {
	Drive  *drive.Service
	Sheets *sheets.Service
	Gmail  *gmail.Service
}

// Credentials returns the service account key, preferring the file when both
// are configured.
func Credentials(cfg config.GoogleConfig) ([]byte, error) {
	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account file: %w", err)
		}
		return data, nil
	}
	if cfg.CredentialsJSON != "" {
		return []byte(cfg.CredentialsJSON), nil
	}
	return nil, config.ErrMissingCredentials
}

// ClientOptions returns the options that authenticate every Google client.
// With a subject set, calls run as that Workspace user through domain-wide
// delegation. A positive timeout bounds each request.
func ClientOptions(ctx context.Context, cfg config.GoogleConfig, timeout time.Duration) ([]option.ClientOption, error) {
	data, err := Credentials(cfg)
	if err != nil {
		return nil, err
	}
	jwtCfg, err := google.JWTConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account: %w", err)
	}
	jwtCfg.Subject = cfg.Subject
	client := jwtCfg.Client(ctx)
	client.Timeout = timeout
	return []option.ClientOption{option.WithHTTPClient(client)}, nil
}

// NewServices builds all three clients. Extra options are applied after the
// credentials, so tests can point them at a local endpoint.
func NewServices(ctx context.Context, cfg config.GoogleConfig, timeout time.Duration, extra ...option.ClientOption) (*Services, error) {
	opts, err := ClientOptions(ctx, cfg, timeout)
	if err != nil {
		return nil, err
	}
	return newServices(ctx, append(opts, extra...)...)
}

func newServices(ctx context.Context, opts ...option.ClientOption) (*Services, error) {
	d, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}
	s, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	g, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return &Services{Drive: d, Sheets: s, Gmail: g}, nil
}
