// Package session keeps the signed-in identity and its profile role. One
// Store is built at start-up, fed by the identity provider's state stream,
// and read by every page.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"investorconnect/internal/client/identity"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"go.uber.org/zap"
)

// State is a snapshot of the session. Both fields are nil for a guest;
// Role is nil when the profile is missing or unreadable.
type State struct {
	Identity *domain.Identity
	Role     *domain.Role
}

// SignedIn reports whether an identity is present
func (s State) SignedIn() bool {
	return s.Identity != nil
}

// HasRole reports whether the session is signed in with role r
func (s State) HasRole(r domain.Role) bool {
	return s.Identity != nil && s.Role != nil && *s.Role == r
}

// RoleOrEmpty returns the role or ""
func (s State) RoleOrEmpty() domain.Role {
	if s.Role == nil {
		return ""
	}
	return *s.Role
}

// Store is the session context
type Store struct {
	provider identity.Provider
	profiles docstore.Store
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   State
	seq     uint64
	applied uint64
	subs    map[int]chan State
	nextSub int

	ready     chan struct{}
	readyOnce sync.Once

	startOnce   sync.Once
	closeOnce   sync.Once
	cancel      context.CancelFunc
	unsubscribe func()
	done        chan struct{}
}

// New creates a store; call Start to begin following the provider
func New(provider identity.Provider, profiles docstore.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		provider: provider,
		profiles: profiles,
		log:      log,
		now:      time.Now,
		subs:     map[int]chan State{},
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start subscribes to the provider's state stream and processes events in
// order on one goroutine until Close.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		events, unsubscribe := s.provider.Subscribe()

		s.mu.Lock()
		s.cancel = cancel
		s.unsubscribe = unsubscribe
		s.mu.Unlock()

		go s.run(ctx, events)
	})
}

func (s *Store) run(ctx context.Context, events <-chan identity.Event) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handle(ctx, ev)
		}
	}
}

// handle treats an event as a trigger; the provider's current identity is
// read again so a queued event never reverts a newer sign-in or sign-out.
func (s *Store) handle(ctx context.Context, ev identity.Event) {
	defer s.markReady()

	if ev.Identity != nil {
		s.log.Debug("auth state changed", zap.String("uid", ev.Identity.UID))
	} else {
		s.log.Debug("auth state changed", zap.Bool("signed_in", false))
	}
	s.Refresh(ctx)
}

// WaitReady blocks until the first provider event, including its role
// lookup, has been processed.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the first event has been processed
func (s *Store) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Current returns the current state
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Subscribe returns a channel that immediately carries the current state
// and then every change. Slow readers only see the latest state. The
// returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	ch <- copyState(s.state)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// Register creates the identity, sets its display name and writes the
// profile, in that order. A failure stops the sequence without undoing
// earlier steps.
func (s *Store) Register(ctx context.Context, email, password, displayName string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}

	// 1. Create identity
	created, err := s.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return err
	}

	// 2. Set display name
	updated, err := s.provider.UpdateDisplayName(ctx, displayName)
	if err != nil {
		s.log.Warn("account created without display name", zap.String("uid", created.UID), zap.Error(err))
		return err
	}

	// 3. Write profile
	profile := map[string]interface{}{
		"email":       updated.Email,
		"displayName": displayName,
		"role":        string(role),
		"createdAt":   domain.FormatTime(s.now()),
	}
	if err := s.profiles.Set(ctx, domain.CollectionUsers, updated.UID, profile); err != nil {
		s.log.Warn("account created without profile", zap.String("uid", updated.UID), zap.Error(err))
		return err
	}

	// 4. Re-resolve so the new role is visible immediately
	s.Refresh(ctx)
	s.log.Info("account registered", zap.String("uid", updated.UID), zap.String("role", string(role)))
	return nil
}

// Login signs in and resolves the role before returning
func (s *Store) Login(ctx context.Context, email, password string) error {
	id, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.Refresh(ctx)
	s.log.Info("signed in", zap.String("uid", id.UID))
	return nil
}

// Logout signs out. Identity and role are nil when it returns, even if the
// provider reported an error.
func (s *Store) Logout(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	s.apply(s.begin(), State{})
	if err != nil {
		s.log.Warn("sign out reported an error", zap.Error(err))
	}
	return err
}

// Refresh re-reads the identity from the provider and its role from the
// profile store.
func (s *Store) Refresh(ctx context.Context) {
	seq := s.begin()
	cur := s.provider.Current()
	if cur == nil {
		s.apply(seq, State{})
		return
	}
	s.apply(seq, State{Identity: cur, Role: s.resolveRole(ctx, cur.UID)})
}

// Close stops following the provider, waits for the event goroutine and
// closes every subscriber channel.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		cancel, unsubscribe := s.cancel, s.unsubscribe
		s.mu.Unlock()

		if cancel != nil {
			cancel()
			unsubscribe()
			<-s.done
		}

		s.mu.Lock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()
	})
}

func (s *Store) resolveRole(ctx context.Context, uid string) *domain.Role {
	doc, err := s.profiles.Get(ctx, domain.CollectionUsers, uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.log.Info("no profile for identity", zap.String("uid", uid))
		} else {
			s.log.Warn("role lookup failed", zap.String("uid", uid), zap.Error(err))
		}
		return nil
	}

	var profile domain.UserProfile
	if err := domain.Decode(doc.Data, &profile); err != nil {
		s.log.Warn("unreadable profile", zap.String("uid", uid), zap.Error(err))
		return nil
	}
	role, err := domain.ParseRole(profile.Role)
	if err != nil {
		s.log.Warn("profile has unknown role", zap.String("uid", uid), zap.String("role", profile.Role))
		return nil
	}
	return &role
}

// begin numbers a state computation; older results never overwrite newer ones
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *Store) apply(seq uint64, st State) {
	// an identity that the provider no longer reports is stale
	if st.Identity != nil {
		cur := s.provider.Current()
		if cur == nil || cur.UID != st.Identity.UID {
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		return
	}
	s.applied = seq
	s.state = copyState(st)

	for _, ch := range s.subs {
		snapshot := copyState(st)
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func copyState(st State) State {
	var out State
	if st.Identity != nil {
		id := *st.Identity
		out.Identity = &id
	}
	if st.Role != nil {
		r := *st.Role
		out.Role = &r
	}
	return out
}
