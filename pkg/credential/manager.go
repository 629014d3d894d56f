package credential

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Manager produces authenticated sessions from the stored credential.
type Manager struct {
	store      Store
	refresher  func() (Refresher, error)
	authorizer func() (Authorizer, error)
	scopes     []string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRefresher sets the lazily created refresher. The function is called
// at most once and only when a refresh is needed, so a valid stored
// credential never requires the client secret.
func WithRefresher(fn func() (Refresher, error)) Option {
	return func(m *Manager) {
		m.refresher = fn
	}
}

// WithAuthorizer enables the interactive grant. Without it, situations that
// need user interaction fail with ErrInteractionRequired.
func WithAuthorizer(fn func() (Authorizer, error)) Option {
	return func(m *Manager) {
		m.authorizer = fn
	}
}

// WithScopes sets the scopes a stored credential must carry to be reused.
func WithScopes(scopes ...string) Option {
	return func(m *Manager) {
		m.scopes = slices.Clone(scopes)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.refresher == nil {
		m.refresher = func() (Refresher, error) {
			return nil, errors.New("credential: no refresher configured")
		}
	}
	m.refresher = sync.OnceValues(m.refresher)
	if m.authorizer != nil {
		m.authorizer = sync.OnceValues(m.authorizer)
	}
	return m
}

// ObtainSession returns a session for the stored credential. A valid
// credential is used as is. An expired one is refreshed exactly once and
// persisted. When there is none, or the refresh fails, the interactive grant
// runs and its result is persisted.
//
// Every error wraps ErrAuth. The session is never nil when the error is nil.
func (m *Manager) ObtainSession(ctx context.Context) (*Session, error) {
	cred, err := m.load(ctx)
	if err != nil {
		return nil, errors.Join(ErrAuth, err)
	}

	if cred.Valid(m.now()) {
		m.logger.DebugContext(ctx, "using stored credential", slog.Time("expiry", cred.Expiry))
		return m.newSession(ctx, cred), nil
	}

	var refreshErr error
	if cred.CanRefresh() {
		next, err := m.refresh(ctx, cred)
		if err == nil {
			if err := m.store.Save(ctx, next); err != nil {
				return nil, errors.Join(ErrAuth, ErrPersistFailed, err)
			}
			m.logger.InfoContext(ctx, "credential refreshed", slog.Time("expiry", next.Expiry))
			return m.newSession(ctx, next), nil
		}
		m.logger.WarnContext(ctx, "credential refresh failed", slog.Any("error", err))
		refreshErr = err
	}

	return m.authorize(ctx, cred, refreshErr)
}

// Login runs the interactive grant regardless of the stored credential and
// persists the result.
func (m *Manager) Login(ctx context.Context) (*Session, error) {
	prev, err := m.load(ctx)
	if err != nil {
		return nil, errors.Join(ErrAuth, err)
	}
	return m.authorize(ctx, prev, nil)
}

// Status describes the stored credential.
type Status struct {
	Stored      bool
	Valid       bool
	Refreshable bool
	ScopesOK    bool
	Expiry      time.Time
	Scopes      []string
}

// Status inspects the stored credential without refreshing it.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	cred, err := m.store.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Status{
		Stored:      true,
		Valid:       cred.Valid(m.now()),
		Refreshable: cred.CanRefresh(),
		ScopesOK:    cred.HasScopes(m.scopes),
		Expiry:      cred.Expiry,
		Scopes:      slices.Clone(cred.Scopes),
	}, nil
}

// Logout deletes the stored credential.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Delete(ctx); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "stored credential deleted")
	return nil
}

// load returns the stored credential when it can be reused or refreshed, nil
// when the interactive grant is needed, and an error otherwise.
func (m *Manager) load(ctx context.Context) (*Credential, error) {
	cred, err := m.store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		m.logger.InfoContext(ctx, "no stored credential")
		return nil, nil
	case errors.Is(err, ErrCorrupt):
		m.logger.WarnContext(ctx, "ignoring unreadable stored credential", slog.Any("error", err))
		return nil, nil
	default:
		return nil, err
	}

	if !cred.HasScopes(m.scopes) {
		m.logger.WarnContext(ctx, "stored credential lacks required scopes",
			slog.Any("granted", cred.Scopes),
			slog.Any("required", m.scopes),
		)
		return nil, nil
	}
	return cred, nil
}

func (m *Manager) refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	r, err := m.refresher()
	if err != nil {
		return nil, err
	}
	return refresh(ctx, r, cred)
}

func (m *Manager) authorize(ctx context.Context, prev *Credential, cause error) (*Session, error) {
	if m.authorizer == nil {
		return nil, errors.Join(ErrAuth, ErrInteractionRequired, cause)
	}
	a, err := m.authorizer()
	if err != nil {
		return nil, errors.Join(ErrAuth, err)
	}
	tok, err := a.Authorize(ctx)
	if err != nil {
		return nil, errors.Join(ErrAuth, err)
	}

	cred := FromToken(tok, m.scopes)
	if cred.RefreshToken == "" && prev != nil {
		cred.RefreshToken = prev.RefreshToken
	}
	if err := m.store.Save(ctx, cred); err != nil {
		return nil, errors.Join(ErrAuth, ErrPersistFailed, err)
	}
	m.logger.InfoContext(ctx, "authorization complete", slog.Time("expiry", cred.Expiry))
	return m.newSession(ctx, cred), nil
}

func (m *Manager) newSession(ctx context.Context, cred *Credential) *Session {
	return &Session{
		ctx:       context.WithoutCancel(ctx),
		store:     m.store,
		refresher: m.refresher,
		logger:    m.logger,
		now:       m.now,
		cred:      cred,
	}
}
