package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/mailshot/pkg/logger"
	"github.com/dmitrymomot/mailshot/pkg/mailer"
	"github.com/dmitrymomot/mailshot/pkg/recipient"
)

// Template renders one recipient's subject and body. *mailer.Campaign
// implements it.
type Template interface {
	Render(data mailer.Data) (*mailer.Content, error)
}

// Campaign is what every recipient of a run receives.
type Campaign struct {
	From       string            // Sender address or "me"
	Template   Template          // Subject and body templates
	Attachment string            // Storage key of the attachment; empty for none
	Headers    map[string]string // Extra headers for every message
}

// Dispatcher sends one message per recipient, strictly in order and one at
// a time.
type Dispatcher struct {
	builder  *mailer.Builder
	sender   mailer.Sender
	reauth   Reauthorizer
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// New creates a Dispatcher building messages with builder and delivering
// them through sender.
func New(builder *mailer.Builder, sender mailer.Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		builder:  builder,
		sender:   sender,
		logger:   logger.NewNope(),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SendBulk sends c to every recipient in order.
//
// The attachment is checked before the first send; when it is missing no
// message is attempted. Every row gets one send attempt, except rows whose
// email does not parse as an address: those are recorded as failed with
// zero attempts. A failure for one recipient is recorded and the run
// continues with the next. The run stops early when the attachment
// disappears, when a forced re-authentication fails, or when ctx is
// cancelled; the report then covers the rows processed so far.
//
// Per-recipient failures are reported in the Report, not as an error.
func (d *Dispatcher) SendBulk(ctx context.Context, recipients []recipient.Recipient, c Campaign) (*Report, error) {
	report := &Report{
		RunID:     d.newRunID(),
		Total:     len(recipients),
		StartedAt: d.now(),
	}
	ctx = logger.WithAttrs(ctx, slog.String("run_id", report.RunID))

	if c.Template == nil {
		return report.finish(d.now()), ErrNoTemplate
	}
	if c.Attachment != "" {
		if _, err := d.builder.CheckAttachment(ctx, c.Attachment); err != nil {
			d.logger.ErrorContext(ctx, "attachment unavailable",
				slog.String("attachment", c.Attachment),
				slog.Any("error", err),
			)
			return report.finish(d.now()), err
		}
	}

	d.logger.InfoContext(ctx, "starting bulk send",
		slog.Int("recipients", len(recipients)),
		slog.String("attachment", c.Attachment),
	)

	for _, r := range recipients {
		if ctx.Err() != nil {
			break
		}

		rctx := logger.WithAttrs(ctx, slog.Int("row", r.Row), slog.String("recipient", r.Email))
		res, err := d.sendOne(rctx, r, c)
		if res != nil {
			report.add(*res)
		}
		if err != nil {
			report.Aborted = true
			report.finish(d.now())
			d.logger.ErrorContext(ctx, "bulk send stopped", slog.Any("error", err))
			return report, err
		}
	}

	report.finish(d.now())
	if err := ctx.Err(); err != nil && report.processed() < report.Total {
		report.Aborted = true
		d.logger.WarnContext(ctx, "bulk send aborted",
			slog.Int("processed", report.processed()),
			slog.Int("total", report.Total),
		)
		return report, errors.Join(ErrAborted, err)
	}

	d.logger.InfoContext(ctx, "bulk send finished",
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// sendOne processes one row. The result is nil when the row was not
// attempted because the throttle wait was cut short. A non-nil error stops
// the run.
func (d *Dispatcher) sendOne(ctx context.Context, r recipient.Recipient, c Campaign) (*Result, error) {
	start := d.now()
	res := &Result{Row: r.Row, Name: r.Name, Email: r.Email}
	fail := func(err error) (*Result, error) {
		res.Status = StatusFailed
		res.Err = err
		res.Duration = d.now().Sub(start)
		d.logger.ErrorContext(ctx, "email not sent", slog.String("name", r.Name), slog.Any("error", err))
		return res, nil
	}

	d.logger.InfoContext(ctx, "sending email", slog.String("name", r.Name), slog.String("email", r.Email))

	addr, err := mail.ParseAddress(r.Email)
	if err != nil {
		return fail(fmt.Errorf("%w: %q: %v", ErrInvalidAddress, r.Email, err))
	}

	content, err := c.Template.Render(mailer.Data(r.Data()))
	if err != nil {
		return fail(err)
	}

	msg, err := d.builder.Build(ctx, mailer.BuildParams{
		From:           c.From,
		To:             addr.Address,
		Subject:        content.Subject,
		HTML:           content.HTML,
		Text:           content.Text,
		AttachmentPath: c.Attachment,
		Headers:        c.Headers,
	})
	if err != nil {
		if errors.Is(err, mailer.ErrAttachmentNotFound) {
			res.Status = StatusFailed
			res.Err = err
			return res, err
		}
		return fail(err)
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, errors.Join(ErrAborted, err)
		}
	}

	sent, err := d.send(ctx, msg, res)
	if err != nil {
		if errors.Is(err, ErrReauthFailed) {
			res.Status = StatusFailed
			res.Err = err
			return res, err
		}
		return fail(err)
	}

	if sent == nil {
		sent = &mailer.SendResult{}
	}
	res.Status = StatusSent
	res.MessageID = sent.ID
	res.Provider = sent.Provider
	res.Duration = d.now().Sub(start)
	d.logger.InfoContext(ctx, "email sent",
		slog.String("message_id", sent.ID),
		slog.String("provider", sent.Provider),
	)
	return res, nil
}

// send delivers msg, refreshing the credential and retrying once when the
// provider rejects it.
func (d *Dispatcher) send(ctx context.Context, msg *mailer.Message, res *Result) (*mailer.SendResult, error) {
	res.Attempts++
	sent, err := d.sender.Send(ctx, msg)
	if err == nil || d.reauth == nil || !errors.Is(err, mailer.ErrUnauthorized) {
		return sent, err
	}

	d.logger.WarnContext(ctx, "credential rejected, refreshing", slog.Any("error", err))
	if rerr := d.reauth.Refresh(ctx); rerr != nil {
		return nil, errors.Join(ErrReauthFailed, rerr)
	}

	res.Attempts++
	return d.sender.Send(ctx, msg)
}
