// Package session holds the authenticated principal for a signed-in caller.
// The Store is the single source of truth for "is someone logged in and who";
// everything else only reads it.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Principal is the identity issued by the identity provider for the current
// session. It is never persisted beyond the session lifetime.
type Principal struct {
	ID    uuid.UUID
	Email string
}

// Persistence selects whether the provider session survives a restart.
type Persistence string

const (
	PersistenceLocal Persistence = "local"
	PersistenceNone  Persistence = "none"
)

// Provider is the identity-provider surface the Store depends on. Tests
// inject fakes; production wires the auth service.
type Provider interface {
	// SetPersistence configures session durability before subscribing.
	SetPersistence(ctx context.Context, mode Persistence) error
	// OnSessionChange registers fn for principal changes. fn receives nil
	// when no principal is signed in; the provider must deliver the current
	// state as the first event. The returned func unsubscribes.
	OnSessionChange(fn func(p *Principal)) (func(), error)
	// SignOut invalidates the provider session.
	SignOut(ctx context.Context) error
}

// Status is the three-way session state.
type Status int

const (
	StatusLoading Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// State pairs a Status with the principal when authenticated.
type State struct {
	Status    Status
	Principal *Principal
}

// Loading is the pre-resolution state.
func Loading() State { return State{Status: StatusLoading} }

// Anonymous is the resolved no-principal state.
func Anonymous() State { return State{Status: StatusAnonymous} }

// Authenticated is the resolved signed-in state.
func Authenticated(p *Principal) State {
	return State{Status: StatusAuthenticated, Principal: p}
}

// Store tracks the session state machine:
//
//	loading → anonymous | authenticated   (first provider event, once)
//	anonymous ⇄ authenticated             (later provider events, sign-out)
//
// Once loading resolves it never comes back.
type Store struct {
	provider Provider

	mu          sync.RWMutex
	state       State
	unsubscribe func()
	listeners   []func(State)
}

func NewStore(provider Provider) *Store {
	return &Store{
		provider: provider,
		state:    Loading(),
	}
}

// Initialize sets persistent mode and subscribes to session changes. A
// persistence configuration error is logged and the subscription proceeds
// anyway, so the caller is never stuck on a dead loading state for a
// cosmetic failure. A subscription failure fails closed: the store settles
// to anonymous, never to a stale principal.
func (s *Store) Initialize(ctx context.Context) error {
	if err := s.provider.SetPersistence(ctx, PersistenceLocal); err != nil {
		log.Printf("WARN: failed to set session persistence: %v", err)
	}

	unsubscribe, err := s.provider.OnSessionChange(func(p *Principal) {
		if p != nil {
			s.apply(Authenticated(p))
		} else {
			s.apply(Anonymous())
		}
	})
	if err != nil {
		s.apply(Anonymous())
		return fmt.Errorf("session subscription failed: %w", err)
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return nil
}

// SignOut invalidates the provider session. On success the store moves to
// anonymous immediately rather than waiting for the next provider event;
// repeated calls are no-ops. On failure the current principal is left
// unchanged and the error is returned.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return err
	}
	s.apply(Anonymous())
	return nil
}

// Current returns the session state.
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// OnChange registers fn for state transitions. fn is called synchronously
// after each transition with the new state.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Close drops the provider subscription.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Store) apply(next State) {
	s.mu.Lock()
	if s.state.Status == next.Status && s.state.Principal == next.Principal {
		s.mu.Unlock()
		return
	}
	s.state = next
	listeners := make([]func(State), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}
