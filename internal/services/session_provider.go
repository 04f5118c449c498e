package services

import (
	"context"
	"sync"

	"taxdesk/internal/models"
	"taxdesk/internal/session"
)

// SessionProvider adapts the auth service to session.Provider for one
// interactive caller: it holds that caller's refresh token, relays
// sign-in/out events, and delivers the current principal to new
// subscribers so a session.Store resolves out of its loading state.
type SessionProvider struct {
	auth AuthService

	mu           sync.Mutex
	current      *session.Principal
	refreshToken string
	persistence  session.Persistence
	detach       func()
}

func NewSessionProvider(auth AuthService) *SessionProvider {
	p := &SessionProvider{auth: auth, persistence: session.PersistenceLocal}
	p.detach = auth.Subscribe(func(principal *session.Principal) {
		p.mu.Lock()
		p.current = principal
		if principal == nil {
			p.refreshToken = ""
		}
		p.mu.Unlock()
	})
	return p
}

// SignIn authenticates and makes this provider's session the signed-in one.
func (p *SessionProvider) SignIn(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	tokens, principal, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.current = principal
	if p.persistence == session.PersistenceLocal {
		p.refreshToken = tokens.RefreshToken
	}
	p.mu.Unlock()
	return tokens, nil
}

// SetPersistence selects whether the refresh token is retained across the
// session. It never fails here, but the session.Store treats a failure as
// non-fatal anyway.
func (p *SessionProvider) SetPersistence(ctx context.Context, mode session.Persistence) error {
	p.mu.Lock()
	p.persistence = mode
	if mode == session.PersistenceNone {
		p.refreshToken = ""
	}
	p.mu.Unlock()
	return nil
}

// OnSessionChange registers fn and immediately delivers the current state,
// so a fresh subscriber always gets its first event.
func (p *SessionProvider) OnSessionChange(fn func(principal *session.Principal)) (func(), error) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	unsubscribe := p.auth.Subscribe(fn)
	fn(current)
	return unsubscribe, nil
}

// SignOut invalidates this provider's session with the identity provider.
func (p *SessionProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	token := p.refreshToken
	p.mu.Unlock()

	return p.auth.SignOut(ctx, token)
}

// Close detaches from the auth service's event stream.
func (p *SessionProvider) Close() {
	if p.detach != nil {
		p.detach()
	}
}
