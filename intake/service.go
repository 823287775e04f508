// Package intake records form submissions as spreadsheet rows and sends the
// resources email.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/logger"
	"github.com/sleeautomation/sitehooks/mailer"
	"github.com/sleeautomation/sitehooks/model"
	"github.com/sleeautomation/sitehooks/sheets"
	"github.com/sleeautomation/sitehooks/telemetry"
)

// Service runs one submission through parse, append and email, in that order.
// Each step runs only when the previous one succeeded; a failed email leaves
// the appended row in place.
type Service struct {
	store  sheets.Store
	sender mailer.Sender
	cfg    config.IntakeConfig
	loc    *time.Location
	now    func() time.Time
}

// NewService wires a service. store should be memoized (sheets.Cached) so the
// spreadsheet is resolved once per process.
func NewService(store sheets.Store, sender mailer.Sender, cfg config.IntakeConfig) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &Service{store: store, sender: sender, cfg: cfg, loc: loc, now: time.Now}, nil
}

func (s *Service) Submit(ctx context.Context, body []byte) Result {
	res := s.submit(ctx, body)
	if !res.OK() {
		telemetry.IntakeFailures.WithLabelValues(string(res.Failure.Kind)).Inc()
		logger.ErrorCtx(ctx, "error processing submission", "kind", res.Failure.Kind, "error", res.Failure.Err)
	}
	return res
}

func (s *Service) submit(ctx context.Context, body []byte) Result {
	var sub model.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return fail(KindParse, err)
	}

	h, err := s.store.Resolve(ctx)
	if err != nil {
		return fail(KindSheetAccess, err)
	}

	lead := s.Record(sub)
	if err := s.store.Append(ctx, h, lead.Row()); err != nil {
		return fail(KindAppend, err)
	}
	telemetry.LeadsAppended.Inc()
	logger.InfoCtx(ctx, "lead recorded", "source", lead.Source, "spreadsheet_id", h.SpreadsheetID)

	if sub.Email == "" {
		return Result{}
	}
	msg, err := mailer.ResourcesEmail(s.cfg, sub.Name, sub.Email)
	if err != nil {
		return fail(KindEmailSend, err)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fail(KindEmailSend, err)
	}
	telemetry.EmailsSent.Inc()
	return Result{}
}

// Record builds the sheet row for a submission.
func (s *Service) Record(sub model.Submission) model.LeadRecord {
	ts := ParseTimestamp(sub.Timestamp, s.now())
	return model.LeadRecord{
		Timestamp: ts.In(s.loc).Format(TimestampLayout),
		Name:      sub.Name,
		Email:     sub.Email,
		Source:    lo.CoalesceOrEmpty(sub.Source, s.cfg.DefaultSource),
		Status:    model.LeadStatus,
	}
}
