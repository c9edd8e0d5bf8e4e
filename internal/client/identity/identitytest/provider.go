// Package identitytest provides an in-process identity.Provider for tests.
package identitytest

import (
	"context"
	"sync"

	"investorconnect/internal/client/identity"
	"investorconnect/internal/core/domain"

	"github.com/google/uuid"
)

type account struct {
	password string
	identity domain.Identity
}

// Provider keeps accounts in memory and emits events like the HTTP client
type Provider struct {
	mu          sync.Mutex
	accounts    map[string]*account
	current     *domain.Identity
	initialized bool
	subs        map[int]chan identity.Event
	nextSub     int

	// Fail, when set, is returned by the named operation
	// ("CreateAccount", "SignIn", "SignOut", "UpdateDisplayName").
	Fail map[string]error
}

var _ identity.Provider = (*Provider)(nil)

// New returns an uninitialized provider; call Init to emit the first event
func New() *Provider {
	return &Provider{
		accounts: map[string]*account{},
		subs:     map[int]chan identity.Event{},
		Fail:     map[string]error{},
	}
}

// AddAccount creates an account without signing in
func (p *Provider) AddAccount(email, password, displayName string) domain.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := domain.Identity{UID: uuid.NewString(), Email: email, DisplayName: displayName}
	p.accounts[email] = &account{password: password, identity: id}
	return id
}

// Init marks the provider initialized, optionally signed in as id
func (p *Provider) Init(id *domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = true
	p.current = id
	p.emitLocked()
}

// Emit pushes the current state again
func (p *Provider) Emit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitLocked()
}

func (p *Provider) fail(op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Fail[op]
}

// CreateAccount implements identity.Provider
func (p *Provider) CreateAccount(_ context.Context, email, password string) (domain.Identity, error) {
	if err := p.fail("CreateAccount"); err != nil {
		return domain.Identity{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; ok {
		return domain.Identity{}, identity.ErrEmailInUse
	}
	id := domain.Identity{UID: uuid.NewString(), Email: email}
	p.accounts[email] = &account{password: password, identity: id}
	p.current = &id
	p.initialized = true
	p.emitLocked()
	return id, nil
}

// SignIn implements identity.Provider
func (p *Provider) SignIn(_ context.Context, email, password string) (domain.Identity, error) {
	if err := p.fail("SignIn"); err != nil {
		return domain.Identity{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.accounts[email]
	if !ok || acc.password != password {
		return domain.Identity{}, identity.ErrInvalidCredentials
	}
	id := acc.identity
	p.current = &id
	p.initialized = true
	p.emitLocked()
	return id, nil
}

// SignOut implements identity.Provider
func (p *Provider) SignOut(context.Context) error {
	err := p.fail("SignOut")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	p.emitLocked()
	return err
}

// UpdateDisplayName implements identity.Provider
func (p *Provider) UpdateDisplayName(_ context.Context, displayName string) (domain.Identity, error) {
	if err := p.fail("UpdateDisplayName"); err != nil {
		return domain.Identity{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return domain.Identity{}, identity.ErrNotSignedIn
	}
	p.current.DisplayName = displayName
	if acc, ok := p.accounts[p.current.Email]; ok {
		acc.identity.DisplayName = displayName
	}
	return *p.current, nil
}

// Current implements identity.Provider
func (p *Provider) Current() *domain.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	id := *p.current
	return &id
}

// Subscribe implements identity.Provider
func (p *Provider) Subscribe() (<-chan identity.Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	ch := make(chan identity.Event, 1)
	p.subs[id] = ch
	if p.initialized {
		ch <- p.eventLocked()
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions
func (p *Provider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

func (p *Provider) eventLocked() identity.Event {
	if p.current == nil {
		return identity.Event{}
	}
	id := *p.current
	return identity.Event{Identity: &id}
}

func (p *Provider) emitLocked() {
	ev := p.eventLocked()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
