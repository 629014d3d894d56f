package dispatch_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailshot/pkg/dispatch"
	"github.com/dmitrymomot/mailshot/pkg/logger"
	"github.com/dmitrymomot/mailshot/pkg/mailer"
	"github.com/dmitrymomot/mailshot/pkg/recipient"
	"github.com/dmitrymomot/mailshot/pkg/storage"
)

const subject = "Invitation to Collaborate with {{.Name}}"

func recipients(emails ...string) []recipient.Recipient {
	names := []string{"Acme Corp", "Beta LLC", "Gamma Inc", "Delta GmbH", "Epsilon SA"}
	out := make([]recipient.Recipient, len(emails))
	for i, e := range emails {
		out[i] = recipient.Recipient{Row: i + 1, Name: names[i%len(names)], Email: e}
	}
	return out
}

func newCampaign(t *testing.T) *mailer.Campaign {
	t.Helper()
	fsys := fstest.MapFS{
		"campaign.html": {Data: []byte("<p>Dear {{.Name}},</p>\n<p>Please find our brochure attached.</p>")},
	}
	c, err := mailer.NewCampaign(mailer.NewRenderer(fsys), mailer.Config{Template: "campaign.html", Subject: subject})
	require.NoError(t, err)
	return c
}

func newAttachment(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brochure.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 brochure"), 0o600))
	return path
}

// recorder is a mailer.Sender that records every attempt and answers from a
// per-attempt script.
type recorder struct {
	mu       sync.Mutex
	messages []*mailer.Message
	respond  func(attempt int, msg *mailer.Message) error
}

func (r *recorder) Send(_ context.Context, msg *mailer.Message) (*mailer.SendResult, error) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	attempt := len(r.messages)
	r.mu.Unlock()

	if r.respond != nil {
		if err := r.respond(attempt, msg); err != nil {
			return nil, err
		}
	}
	return &mailer.SendResult{ID: "msg-" + msg.Recipient(), Provider: "test"}, nil
}

func (r *recorder) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Recipient()
	}
	return out
}

type reauth struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *reauth) Refresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func newDispatcher(sender mailer.Sender, opts ...dispatch.Option) *dispatch.Dispatcher {
	return dispatch.New(mailer.NewBuilder(storage.NewLocal("")), sender, opts...)
}

func TestSendBulk_SendsEveryRowInOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	d := newDispatcher(rec, dispatch.WithRunID(func() string { return "run-1" }))
	rows := recipients("x@acme.com", "ops@beta.example", "hello@gamma.example")

	report, err := d.SendBulk(context.Background(), rows, dispatch.Campaign{
		From:       "me",
		Template:   newCampaign(t),
		Attachment: newAttachment(t),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"x@acme.com", "ops@beta.example", "hello@gamma.example"}, rec.recipients())
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Sent)
	assert.Zero(t, report.Failed)
	assert.False(t, report.Aborted)
	assert.False(t, report.HasFailures())

	first := rec.messages[0]
	assert.Equal(t, []string{"x@acme.com"}, first.Email.To)
	assert.Equal(t, "me", first.Email.From)
	assert.Equal(t, "Invitation to Collaborate with Acme Corp", first.Email.Subject)
	assert.Contains(t, first.Email.HTML, "Dear Acme Corp,")
	require.Len(t, first.Email.Attachments, 1)
	assert.Equal(t, "brochure.pdf", first.Email.Attachments[0].Filename)

	for i, res := range report.Results {
		assert.Equal(t, i+1, res.Row)
		assert.Equal(t, dispatch.StatusSent, res.Status)
		assert.Equal(t, "msg-"+rows[i].Email, res.MessageID)
		assert.Equal(t, 1, res.Attempts)
	}
}

func TestSendBulk_MissingAttachment(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	report, err := newDispatcher(rec).SendBulk(context.Background(), recipients("x@acme.com", "y@beta.example"), dispatch.Campaign{
		Template:   newCampaign(t),
		Attachment: filepath.Join(t.TempDir(), "brochure.pdf"),
	})
	require.ErrorIs(t, err, mailer.ErrAttachmentNotFound)
	assert.Empty(t, rec.recipients())
	assert.Empty(t, report.Results)
	assert.True(t, report.HasFailures())
}

func TestSendBulk_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(attempt int, _ *mailer.Message) error {
		if attempt == 2 {
			return errors.Join(mailer.ErrSendFailed, errors.New("quota exceeded"))
		}
		return nil
	}}
	rows := recipients("a@acme.com", "b@beta.example", "c@gamma.example", "d@delta.example")

	report, err := newDispatcher(rec).SendBulk(context.Background(), rows, dispatch.Campaign{
		Template:   newCampaign(t),
		Attachment: newAttachment(t),
	})
	require.NoError(t, err)

	assert.Len(t, rec.recipients(), 4)
	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.HasFailures())

	failed := report.FailedResults()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Row)
	require.ErrorIs(t, failed[0].Err, mailer.ErrSendFailed)
}

func TestSendBulk_RowFailuresWithoutSend(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	rows := recipients("not-an-address", "b@beta.example")
	fsys := fstest.MapFS{"campaign.html": {Data: []byte("<p>Dear {{.Name}}, {{.Tier}}</p>")}}
	tmpl, err := mailer.NewCampaign(mailer.NewRenderer(fsys), mailer.Config{Template: "campaign.html", Subject: subject})
	require.NoError(t, err)

	report, err := newDispatcher(rec).SendBulk(context.Background(), rows, dispatch.Campaign{Template: tmpl})
	require.NoError(t, err)

	assert.Empty(t, rec.recipients())
	assert.Equal(t, 2, report.Failed)
	require.ErrorIs(t, report.Results[0].Err, dispatch.ErrInvalidAddress)
	require.ErrorIs(t, report.Results[1].Err, mailer.ErrRenderFailed)
	assert.Zero(t, report.Results[0].Attempts)
}

func TestSendBulk_RetriesOnceAfterReauth(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(attempt int, _ *mailer.Message) error {
		if attempt == 1 {
			return errors.Join(mailer.ErrUnauthorized, errors.New("401 invalid credentials"))
		}
		return nil
	}}
	ra := &reauth{}

	report, err := newDispatcher(rec, dispatch.WithReauthorizer(ra)).SendBulk(context.Background(),
		recipients("x@acme.com", "y@beta.example"),
		dispatch.Campaign{Template: newCampaign(t), Attachment: newAttachment(t)},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, ra.calls)
	assert.Equal(t, []string{"x@acme.com", "x@acme.com", "y@beta.example"}, rec.recipients())
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 2, report.Results[0].Attempts)
	assert.Equal(t, 1, report.Results[1].Attempts)
}

func TestSendBulk_UnauthorizedAfterRetry(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(attempt int, msg *mailer.Message) error {
		if msg.Recipient() == "x@acme.com" {
			return mailer.ErrUnauthorized
		}
		return nil
	}}
	ra := &reauth{}

	report, err := newDispatcher(rec, dispatch.WithReauthorizer(ra)).SendBulk(context.Background(),
		recipients("x@acme.com", "y@beta.example"),
		dispatch.Campaign{Template: newCampaign(t)},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, ra.calls)
	assert.Len(t, rec.recipients(), 3)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Sent)
}

func TestSendBulk_ReauthFailureStopsRun(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(int, *mailer.Message) error { return mailer.ErrUnauthorized }}
	ra := &reauth{err: errors.New("invalid_grant")}

	report, err := newDispatcher(rec, dispatch.WithReauthorizer(ra)).SendBulk(context.Background(),
		recipients("x@acme.com", "y@beta.example"),
		dispatch.Campaign{Template: newCampaign(t)},
	)
	require.ErrorIs(t, err, dispatch.ErrReauthFailed)
	assert.Equal(t, []string{"x@acme.com"}, rec.recipients())
	assert.True(t, report.Aborted)
	assert.Equal(t, 1, report.Failed)
}

func TestSendBulk_UnauthorizedWithoutReauthorizer(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(int, *mailer.Message) error { return mailer.ErrUnauthorized }}
	report, err := newDispatcher(rec).SendBulk(context.Background(),
		recipients("x@acme.com", "y@beta.example"),
		dispatch.Campaign{Template: newCampaign(t)},
	)
	require.NoError(t, err)
	assert.Len(t, rec.recipients(), 2)
	assert.Equal(t, 2, report.Failed)
}

func TestSendBulk_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{respond: func(attempt int, _ *mailer.Message) error {
		if attempt == 1 {
			cancel()
		}
		return nil
	}}

	report, err := newDispatcher(rec).SendBulk(ctx,
		recipients("a@acme.com", "b@beta.example", "c@gamma.example"),
		dispatch.Campaign{Template: newCampaign(t)},
	)
	require.ErrorIs(t, err, dispatch.ErrAborted)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, report.Aborted)
	assert.Equal(t, []string{"a@acme.com"}, rec.recipients())
	assert.Len(t, report.Results, 1)
	assert.True(t, report.HasFailures())
}

func TestSendBulk_AttachmentRemovedMidRun(t *testing.T) {
	t.Parallel()

	attachment := newAttachment(t)
	rec := &recorder{respond: func(attempt int, _ *mailer.Message) error {
		if attempt == 1 {
			return os.Remove(attachment)
		}
		return nil
	}}

	report, err := newDispatcher(rec).SendBulk(context.Background(),
		recipients("a@acme.com", "b@beta.example", "c@gamma.example"),
		dispatch.Campaign{Template: newCampaign(t), Attachment: attachment},
	)
	require.ErrorIs(t, err, mailer.ErrAttachmentNotFound)
	assert.True(t, report.Aborted)
	assert.Equal(t, []string{"a@acme.com"}, rec.recipients())
	require.Len(t, report.Results, 2)
	assert.Equal(t, dispatch.StatusSent, report.Results[0].Status)
	assert.Equal(t, dispatch.StatusFailed, report.Results[1].Status)
}

func TestSendBulk_RateLimit(t *testing.T) {
	t.Parallel()

	t.Run("throttled sends complete", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		report, err := newDispatcher(rec, dispatch.WithConfig(dispatch.Config{Rate: 1000, Burst: 2})).
			SendBulk(context.Background(), recipients("a@acme.com", "b@beta.example", "c@gamma.example"),
				dispatch.Campaign{Template: newCampaign(t)})
		require.NoError(t, err)
		assert.Equal(t, 3, report.Sent)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		rec := &recorder{}
		report, err := newDispatcher(rec, dispatch.WithRateLimit(0.001, 1)).
			SendBulk(ctx, recipients("a@acme.com", "b@beta.example"), dispatch.Campaign{Template: newCampaign(t)})
		require.ErrorIs(t, err, dispatch.ErrAborted)
		assert.Equal(t, []string{"a@acme.com"}, rec.recipients())
		assert.Len(t, report.Results, 1)
	})
}

func TestSendBulk_NoTemplate(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, err := newDispatcher(rec).SendBulk(context.Background(), recipients("a@acme.com"), dispatch.Campaign{})
	require.ErrorIs(t, err, dispatch.ErrNoTemplate)
	assert.Empty(t, rec.recipients())
}

func TestSendBulk_LogsCarryRunContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var mu sync.Mutex
	log := logger.New(&lockedWriter{w: &buf, mu: &mu}, logger.Config{Format: logger.FormatJSON})

	_, err := newDispatcher(&recorder{},
		dispatch.WithLogger(log),
		dispatch.WithRunID(func() string { return "run-42" }),
	).SendBulk(context.Background(), recipients("x@acme.com"), dispatch.Campaign{Template: newCampaign(t)})
	require.NoError(t, err)

	mu.Lock()
	out := buf.String()
	mu.Unlock()

	var sentLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, `"msg":"email sent"`) {
			sentLine = line
		}
	}
	require.NotEmpty(t, sentLine)
	assert.Contains(t, sentLine, `"run_id":"run-42"`)
	assert.Contains(t, sentLine, `"row":1`)
	assert.Contains(t, sentLine, `"recipient":"x@acme.com"`)
	assert.Contains(t, sentLine, `"message_id":"msg-x@acme.com"`)
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestReport_WriteCSV(t *testing.T) {
	t.Parallel()

	report := &dispatch.Report{
		Results: []dispatch.Result{
			{Row: 1, Name: "Acme Corp", Email: "x@acme.com", Status: dispatch.StatusSent, MessageID: "18c1", Provider: "gmail", Attempts: 1},
			{Row: 2, Name: "Beta, LLC", Email: "bad", Status: dispatch.StatusFailed, Err: dispatch.ErrInvalidAddress},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"row", "name", "email", "status", "message_id", "provider", "attempts", "error"}, records[0])
	assert.Equal(t, []string{"1", "Acme Corp", "x@acme.com", "sent", "18c1", "gmail", "1", ""}, records[1])
	assert.Equal(t, "Beta, LLC", records[2][1])
	assert.Equal(t, dispatch.ErrInvalidAddress.Error(), records[2][7])
}
