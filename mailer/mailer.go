// Package mailer composes and sends the resources confirmation email.
package mailer

import (
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/templater"
	"google.golang.org/api/gmail/v1"
)

//go:embed templates/resources.html
var resourcesHTML string

//go:embed templates/resources.txt
var resourcesText string

// FallbackFirstName greets recipients whose name is blank.
const FallbackFirstName = "there"

var tpl = templater.NewTemplater()

// Message is one outgoing email with plain and HTML alternatives.
type Message struct {
	To       string
	FromName string
	Subject  string
	Text     string
	HTML     string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// FirstName returns the first whitespace-separated token of name.
func FirstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return FallbackFirstName
}

// ResourcesEmail renders the confirmation sent after a lead signs up.
func ResourcesEmail(cfg config.IntakeConfig, name, to string) (Message, error) {
	data := map[string]any{
		"first_name":    FirstName(name),
		"resources_url": cfg.ResourcesURL,
		"from_name":     cfg.FromName,
	}
	html, err := tpl.Render(resourcesHTML, data)
	if err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	text, err := tpl.RenderText(resourcesText, data)
	if err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	return Message{
		To:       to,
		FromName: cfg.FromName,
		Subject:  "Your Free Resources from " + cfg.FromName,
		Text:     text,
		HTML:     html,
	}, nil
}

// GmailSender sends through the Gmail API as the authenticated user.
type GmailSender struct {
	svc *gmail.Service
	now func() time.Time

	mu   sync.Mutex
	from string
}

// NewGmailSender returns a sender. from is the mailbox address placed in the
// From header. When it is empty and a message carries a display name, the
// address is read once from the authenticated user's Gmail profile.
func NewGmailSender(svc *gmail.Service, from string) *GmailSender {
	return &GmailSender{svc: svc, from: from, now: time.Now}
}

func (s *GmailSender) address(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.from != "" {
		return s.from, nil
	}
	profile, err := s.svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail profile: %w", err)
	}
	s.from = profile.EmailAddress
	return s.from, nil
}

func (s *GmailSender) Send(ctx context.Context, msg Message) error {
	var from string
	if msg.FromName != "" {
		addr, err := s.address(ctx)
		if err != nil {
			return err
		}
		from = addr
	} else {
		s.mu.Lock()
		from = s.from
		s.mu.Unlock()
	}
	raw, err := msg.MIME(from, s.now())
	if err != nil {
		return err
	}
	sent, err := s.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	logger.DebugCtx(ctx, "email sent", "to", msg.To, "message_id", sent.Id)
	return nil
}
