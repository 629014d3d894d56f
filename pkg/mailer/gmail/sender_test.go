package gmail_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/mailshot/pkg/credential"
	"github.com/dmitrymomot/mailshot/pkg/mailer"
	"github.com/dmitrymomot/mailshot/pkg/mailer/gmail"
)

const sendPath = "/gmail/v1/users/me/messages/send"

func newMessage() *mailer.Message {
	return &mailer.Message{
		Email: &mailer.Email{To: []string{"x@acme.com"}},
		Raw:   []byte("To: x@acme.com\r\nSubject: Hi\r\n\r\nbody?>>"),
	}
}

func newSender(t *testing.T, handler http.HandlerFunc, opts ...gmail.Option) *gmail.Sender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := gmail.New(context.Background(), srv.Client(), gmail.Config{Endpoint: srv.URL + "/"}, opts...)
	require.NoError(t, err)
	return s
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	msg := newMessage()
	var calls atomic.Int32

	s := newSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, sendPath, r.URL.Path)

		var body struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, err := base64.URLEncoding.DecodeString(body.Raw)
		require.NoError(t, err)
		assert.Equal(t, msg.Raw, raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m-1","threadId":"t-1","labelIds":["SENT"]}`))
	})

	res, err := s.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "m-1", res.ID)
	assert.Equal(t, gmail.ProviderName, res.Provider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSender_Send_CustomUser(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/events@example.com/messages/send", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"m-2"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := gmail.New(context.Background(), srv.Client(), gmail.Config{
		Endpoint: srv.URL + "/",
		UserID:   "events@example.com",
	})
	require.NoError(t, err)

	res, err := s.Send(context.Background(), newMessage())
	require.NoError(t, err)
	assert.Equal(t, "m-2", res.ID)
}

func TestSender_Send_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		wantErr  error
		notWant  error
		apiError string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: mailer.ErrUnauthorized, apiError: "Invalid Credentials"},
		{name: "bad request", status: http.StatusBadRequest, wantErr: mailer.ErrSendFailed, notWant: mailer.ErrUnauthorized, apiError: "Invalid To header"},
		{name: "forbidden", status: http.StatusForbidden, wantErr: mailer.ErrSendFailed, notWant: mailer.ErrUnauthorized, apiError: "Insufficient Permission"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newSender(t, func(w http.ResponseWriter, _ *http.Request) {
				writeAPIError(w, tt.status, tt.apiError)
			})

			res, err := s.Send(context.Background(), newMessage())
			require.ErrorIs(t, err, tt.wantErr)
			if tt.notWant != nil {
				require.NotErrorIs(t, err, tt.notWant)
			}
			assert.Contains(t, err.Error(), tt.apiError)
			assert.Nil(t, res)
		})
	}
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

func TestSender_Send_CredentialUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))
	t.Cleanup(srv.Close)

	client := &http.Client{Transport: &oauth2.Transport{
		Source: tokenSourceFunc(func() (*oauth2.Token, error) {
			return nil, errors.Join(credential.ErrAuth, credential.ErrNoRefreshToken)
		}),
		Base: srv.Client().Transport,
	}}
	s, err := gmail.New(context.Background(), client, gmail.Config{Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	res, err := s.Send(context.Background(), newMessage())
	require.ErrorIs(t, err, mailer.ErrUnauthorized)
	require.ErrorIs(t, err, credential.ErrNoRefreshToken)
	require.NotErrorIs(t, err, mailer.ErrSendFailed)
	assert.Nil(t, res)
}

func TestSender_Send_EmptyMessage(t *testing.T) {
	t.Parallel()

	s := newSender(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})

	_, err := s.Send(context.Background(), &mailer.Message{})
	require.ErrorIs(t, err, mailer.ErrNoContent)
}

func TestSender_Send_LogsRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := newSender(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"m-3"}`))
	}, gmail.WithLogger(logger))

	_, err := s.Send(context.Background(), newMessage())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "gmail api request")
	assert.Contains(t, buf.String(), "status=200")
	assert.NotContains(t, buf.String(), "x@acme.com")
}

func TestNew_RequiresClient(t *testing.T) {
	t.Parallel()

	_, err := gmail.New(context.Background(), nil, gmail.Config{})
	require.Error(t, err)
}
