package oauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAuthorizationTimeout bounds how long the loopback flow waits
	// for the browser callback.
	DefaultAuthorizationTimeout = 5 * time.Minute

	defaultLoopbackHost = "127.0.0.1"
	defaultCallbackPath = "/callback"
	shutdownTimeout     = 5 * time.Second
)

// LoopbackConfig configures the local callback server of the interactive
// grant.
type LoopbackConfig struct {
	// Host to listen on. Defaults to 127.0.0.1.
	Host string `yaml:"host" env:"MAILSHOT_AUTH_HOST"`
	// Port to listen on. Zero picks a free port.
	Port int `yaml:"port" env:"MAILSHOT_AUTH_PORT"`
	// Timeout for the whole flow. Defaults to DefaultAuthorizationTimeout.
	Timeout time.Duration `yaml:"timeout" env:"MAILSHOT_AUTH_TIMEOUT"`
	// NoBrowser only prints the URL instead of opening a browser.
	NoBrowser bool `yaml:"no_browser" env:"MAILSHOT_AUTH_NO_BROWSER"`
}

// LoopbackAuthorizer runs the authorization code grant for installed
// applications: it serves a one-shot callback on a loopback address, sends
// the user to the consent page and exchanges the returned code with PKCE.
type LoopbackAuthorizer struct {
	provider Provider
	cfg      LoopbackConfig
	logger   *slog.Logger
	out      io.Writer
	openURL  func(string) error
}

// LoopbackOption configures a LoopbackAuthorizer.
type LoopbackOption func(*LoopbackAuthorizer)

// WithLoopbackLogger sets the logger.
func WithLoopbackLogger(l *slog.Logger) LoopbackOption {
	return func(a *LoopbackAuthorizer) {
		a.logger = l
	}
}

// WithPrompt sets where the authorization URL is printed. Defaults to stderr.
func WithPrompt(w io.Writer) LoopbackOption {
	return func(a *LoopbackAuthorizer) {
		a.out = w
	}
}

// WithURLOpener replaces the browser launcher.
func WithURLOpener(fn func(string) error) LoopbackOption {
	return func(a *LoopbackAuthorizer) {
		a.openURL = fn
	}
}

// NewLoopbackAuthorizer creates an interactive authorizer for provider.
func NewLoopbackAuthorizer(provider Provider, cfg LoopbackConfig, opts ...LoopbackOption) *LoopbackAuthorizer {
	if cfg.Host == "" {
		cfg.Host = defaultLoopbackHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAuthorizationTimeout
	}

	a := &LoopbackAuthorizer{
		provider: provider,
		cfg:      cfg,
		logger:   slog.New(slog.DiscardHandler),
		out:      os.Stderr,
		openURL:  openBrowser,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

// Authorize runs the interactive grant and returns the issued token.
// It requests offline access so the token carries a refresh token.
func (a *LoopbackAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	verifier, challenge, err := newPKCEPair()
	if err != nil {
		return nil, err
	}
	state, err := randomToken(24)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(a.cfg.Host, strconv.Itoa(a.cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("oauth: start callback listener: %w", err)
	}
	redirectURI := fmt.Sprintf("http://%s%s", ln.Addr().String(), defaultCallbackPath)

	authURL := a.provider.AuthCodeURL(state,
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)

	flowCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	results := make(chan callbackResult, 1)
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	r := chi.NewRouter()
	r.Get(defaultCallbackPath, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "invalid state", http.StatusBadRequest)
			deliver(callbackResult{err: ErrStateMismatch})
			return
		case q.Get("error") != "":
			http.Error(w, "authorization failed: "+q.Get("error"), http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("%w: %s", ErrAccessDenied, q.Get("error"))})
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(callbackResult{err: ErrMissingCode})
			return
		}

		token, err := a.provider.Exchange(flowCtx, q.Get("code"), redirectURI,
			oauth2.SetAuthURLParam("code_verifier", verifier))
		if err != nil {
			http.Error(w, "token exchange failed", http.StatusInternalServerError)
			deliver(callbackResult{err: err})
			return
		}
		_, _ = fmt.Fprintln(w, "Authentication complete. You can close this window.")
		deliver(callbackResult{token: token})
	})

	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var token *oauth2.Token
	g, gctx := errgroup.WithContext(flowCtx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("oauth: callback server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		select {
		case res := <-results:
			token = res.token
			return res.err
		case <-gctx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(flowCtx.Err(), context.DeadlineExceeded) {
				return ErrAuthorizationTimeout
			}
			return gctx.Err()
		}
	})

	a.logger.InfoContext(ctx, "waiting for browser authorization",
		slog.String("provider", a.provider.Name()),
		slog.String("redirect_uri", redirectURI),
	)
	_, _ = fmt.Fprintf(a.out, "Open the following URL in your browser to authorize access:\n\n%s\n\n", authURL)
	if !a.cfg.NoBrowser && a.openURL != nil {
		if err := a.openURL(authURL); err != nil {
			a.logger.DebugContext(ctx, "could not open browser", slog.Any("error", err))
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return token, nil
}

func newPKCEPair() (string, string, error) {
	verifier, err := randomToken(32)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

func randomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oauth: generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
