// Package core wires the feed and intake handlers from configuration.
package core

import (
	"context"
	"net/http"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/feed"
	"github.com/sleeautomation/sitehooks/gworkspace"
	"github.com/sleeautomation/sitehooks/intake"
	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/mailer"
	"github.com/sleeautomation/sitehooks/notion"
	"github.com/sleeautomation/sitehooks/secrets"
	"github.com/sleeautomation/sitehooks/sheets"
	"google.golang.org/api/option"
)

// ResolveSecrets fills credentials missing from cfg through the configured
// secrets provider.
func ResolveSecrets(ctx context.Context, cfg *config.Config) error {
	p, err := secrets.NewSecretsProvider(ctx, &cfg.Secrets)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("Failed to close secrets provider: %v", err)
		}
	}()
	return secrets.Hydrate(ctx, p, cfg)
}

// NewNotionClient returns a content store client bounded by the configured
// request timeout.
func NewNotionClient(cfg *config.Config) *notion.Client {
	return notion.NewClient(cfg.Notion, notion.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}))
}

// NewFeedHandler builds the feed handler. It never fails: a missing key
// surfaces as an upstream error on the first request.
func NewFeedHandler(cfg *config.Config) *feed.Handler {
	return feed.NewHandler(NewNotionClient(cfg))
}

// Intake holds the intake path and the pieces the CLI reuses.
type Intake struct {
	Store   *sheets.GoogleStore
	Leads   *sheets.Cached
	Sender  *mailer.GmailSender
	Service *intake.Service
	Handler *intake.Handler
}

// InitializeIntake builds the Google clients and the intake service. ctx must
// outlive the returned clients since token refreshes run on it.
func InitializeIntake(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*Intake, error) {
	svc, err := gworkspace.NewServices(ctx, cfg.Google, cfg.Timeout(), opts...)
	if err != nil {
		return nil, err
	}
	store := sheets.NewGoogleStore(svc.Drive, svc.Sheets, cfg.Intake)
	leads := sheets.NewCached(store)
	sender := mailer.NewGmailSender(svc.Gmail, cfg.Google.Subject)
	service, err := intake.NewService(leads, sender, cfg.Intake)
	if err != nil {
		return nil, err
	}
	return &Intake{
		Store:   store,
		Leads:   leads,
		Sender:  sender,
		Service: service,
		Handler: intake.NewHandler(service, cfg.Intake.ServiceName),
	}, nil
}
