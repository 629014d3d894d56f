package resend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailshot/pkg/mailer"
	"github.com/dmitrymomot/mailshot/pkg/mailer/resend"
)

func newMessage(from string) *mailer.Message {
	return &mailer.Message{
		Email: &mailer.Email{
			From:    from,
			To:      []string{"x@acme.com"},
			Subject: "Sponsorship opportunity",
			HTML:    "<p>Dear Acme Corp,</p>",
			Attachments: []mailer.Attachment{{
				Filename:    "brochure.pdf",
				ContentType: "application/pdf",
				Content:     []byte("%PDF-1.4"),
			}},
		},
		Raw: []byte("raw"),
	}
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_123"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := resend.New(resend.Config{
		APIKey:      "re_test",
		SenderEmail: "events@example.com",
		SenderName:  "Events Team",
		BaseURL:     srv.URL,
	})
	require.NoError(t, err)

	res, err := s.Send(context.Background(), newMessage("me"))
	require.NoError(t, err)
	assert.Equal(t, "re_123", res.ID)
	assert.Equal(t, resend.ProviderName, res.Provider)

	assert.Equal(t, "Events Team <events@example.com>", got["from"])
	assert.Equal(t, []any{"x@acme.com"}, got["to"])
	assert.Equal(t, "Sponsorship opportunity", got["subject"])
	attachments, ok := got["attachments"].([]any)
	require.True(t, ok)
	require.Len(t, attachments, 1)
}

func TestSender_Send_ExplicitFrom(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"re_124"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := resend.New(resend.Config{APIKey: "re_test", SenderEmail: "fallback@example.com", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Send(context.Background(), newMessage("partners@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "partners@example.com", got["from"])
}

func TestSender_Send_NoSender(t *testing.T) {
	t.Parallel()

	s, err := resend.New(resend.Config{APIKey: "re_test"})
	require.NoError(t, err)

	_, err = s.Send(context.Background(), newMessage("me"))
	require.ErrorIs(t, err, resend.ErrNoSender)

	_, err = s.Send(context.Background(), &mailer.Message{})
	require.ErrorIs(t, err, mailer.ErrNoContent)
}

func TestSender_Send_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := resend.New(resend.Config{APIKey: "re_test", SenderEmail: "events@example.com", BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := s.Send(context.Background(), newMessage(""))
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	assert.NotErrorIs(t, err, mailer.ErrUnauthorized)
	assert.Nil(t, res)
}
