package smtp

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailshot/pkg/mailer"
)

type delivery struct {
	from string
	rcpt []string
	data string
}

// fakeRelay accepts a single SMTP session. With rejectAuth set it
// advertises AUTH and refuses every attempt.
func fakeRelay(t *testing.T, rejectAuth bool) (Config, <-chan delivery) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan delivery, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		var d delivery
		_ = tp.PrintfLine("220 127.0.0.1 ESMTP fake")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb, arg, _ := strings.Cut(line, " ")
			switch strings.ToUpper(verb) {
			case "EHLO":
				if rejectAuth {
					_ = tp.PrintfLine("250-127.0.0.1")
					_ = tp.PrintfLine("250 AUTH PLAIN")
				} else {
					_ = tp.PrintfLine("250 127.0.0.1")
				}
			case "AUTH":
				_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
			case "MAIL":
				d.from = arg
				_ = tp.PrintfLine("250 OK")
			case "RCPT":
				d.rcpt = append(d.rcpt, arg)
				_ = tp.PrintfLine("250 OK")
			case "DATA":
				_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				d.data = string(data)
				_ = tp.PrintfLine("250 OK queued")
				out <- d
			case "QUIT":
				_ = tp.PrintfLine("221 Bye")
				return
			default:
				_ = tp.PrintfLine("250 OK")
			}
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return Config{Host: host, Port: port, SenderEmail: "events@example.com"}, out
}

func testMessage() *mailer.Message {
	return &mailer.Message{
		Email: &mailer.Email{From: "me", To: []string{"x@acme.com"}, Subject: "Hi", HTML: "<p>Dear Acme Corp,</p>"},
		Raw:   []byte("To: x@acme.com\r\nSubject: Hi\r\n\r\nDear Acme Corp,\r\n"),
	}
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	cfg, deliveries := fakeRelay(t, false)
	s, err := New(cfg)
	require.NoError(t, err)

	res, err := s.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, ProviderName, res.Provider)

	d := <-deliveries
	assert.Contains(t, d.from, "<events@example.com>")
	require.Len(t, d.rcpt, 1)
	assert.Contains(t, d.rcpt[0], "<x@acme.com>")
	assert.Contains(t, d.data, "Dear Acme Corp,")
}

func TestSender_Send_FromHeader(t *testing.T) {
	t.Parallel()

	built, err := mailer.NewBuilder(nil).Build(context.Background(), mailer.BuildParams{
		From:    "me",
		To:      "x@acme.com",
		Subject: "Sponsorship opportunity",
		HTML:    "<p>Dear Acme Corp,</p>",
	})
	require.NoError(t, err)

	t.Run("me is replaced by the configured sender", func(t *testing.T) {
		t.Parallel()
		cfg, deliveries := fakeRelay(t, false)
		s, err := New(cfg)
		require.NoError(t, err)

		_, err = s.Send(context.Background(), built)
		require.NoError(t, err)

		d := <-deliveries
		assert.Contains(t, d.from, "<events@example.com>")
		assert.True(t, strings.HasPrefix(d.data, "From: events@example.com\n"), "data: %q", d.data)
		assert.NotContains(t, d.data, "From: me")
		assert.Contains(t, d.data, "Dear Acme Corp,")
		assert.Equal(t, "me", built.Email.From)
	})

	t.Run("explicit sender is kept", func(t *testing.T) {
		t.Parallel()
		explicit, err := mailer.NewBuilder(nil).Build(context.Background(), mailer.BuildParams{
			From:    "Events Team <team@example.com>",
			To:      "x@acme.com",
			Subject: "Sponsorship opportunity",
			HTML:    "<p>Dear Acme Corp,</p>",
		})
		require.NoError(t, err)

		cfg, deliveries := fakeRelay(t, false)
		s, err := New(cfg)
		require.NoError(t, err)

		_, err = s.Send(context.Background(), explicit)
		require.NoError(t, err)

		d := <-deliveries
		assert.Contains(t, d.from, "<team@example.com>")
		assert.True(t, strings.HasPrefix(d.data, "From: Events Team <team@example.com>\n"), "data: %q", d.data)
	})
}

func TestSender_Send_AuthRejected(t *testing.T) {
	t.Parallel()

	cfg, _ := fakeRelay(t, true)
	cfg.Username = "relay-user"
	cfg.Password = "wrong"
	s, err := New(cfg)
	require.NoError(t, err)

	_, err = s.Send(context.Background(), testMessage())
	require.ErrorIs(t, err, mailer.ErrUnauthorized)
}

func TestSender_Send_Validation(t *testing.T) {
	t.Parallel()

	s, err := New(Config{Host: "127.0.0.1", Port: 1})
	require.NoError(t, err)

	_, err = s.Send(context.Background(), &mailer.Message{})
	require.ErrorIs(t, err, mailer.ErrNoContent)

	_, err = s.Send(context.Background(), &mailer.Message{Raw: []byte("x"), Email: &mailer.Email{}})
	require.ErrorIs(t, err, mailer.ErrNoRecipient)

	_, err = s.Send(context.Background(), testMessage())
	require.ErrorIs(t, err, ErrNoSender)

	_, err = New(Config{})
	require.ErrorIs(t, err, ErrNoHost)
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, classifyError(&textproto.Error{Code: 535, Msg: "bad credentials"}), mailer.ErrUnauthorized)
	require.ErrorIs(t, classifyError(&textproto.Error{Code: 550, Msg: "mailbox unavailable"}), mailer.ErrSendFailed)
	require.NotErrorIs(t, classifyError(&textproto.Error{Code: 550}), mailer.ErrUnauthorized)
}
