package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"investorconnect/internal/client/api"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/pkg/jwt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// refreshSkew renews access tokens slightly before they expire
const refreshSkew = 30 * time.Second

// credentials is the persisted session file
type credentials struct {
	UID          string `yaml:"uid"`
	Email        string `yaml:"email"`
	DisplayName  string `yaml:"display_name"`
	RefreshToken string `yaml:"refresh_token"`
}

type authResponse struct {
	User         domain.Identity `json:"user"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int             `json:"expires_in"`
}

type userResponse struct {
	User domain.Identity `json:"user"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type profileRequest struct {
	DisplayName string `json:"display_name"`
}

// Client is the HTTP identity SDK. It keeps the token pair in memory and
// the refresh token on disk so a later process can restore the session.
type Client struct {
	api         *api.Client
	sessionFile string
	log         *zap.Logger
	now         func() time.Time

	mu           sync.Mutex
	initialized  bool
	identity     *domain.Identity
	accessToken  string
	accessExpiry time.Time
	refreshToken string
	subs         map[int]chan Event
	nextSub      int
}

var (
	_ Provider        = (*Client)(nil)
	_ api.TokenSource = (*Client)(nil)
)

// NewClient creates the SDK. sessionFile may be empty to keep sessions in
// memory only.
func NewClient(apiClient *api.Client, sessionFile string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		api:         apiClient,
		sessionFile: sessionFile,
		log:         log,
		now:         time.Now,
		subs:        map[int]chan Event{},
	}
}

// Restore loads the persisted session, exchanges its refresh token for a
// new pair and marks the client initialized. Subscribers receive their
// first event here. A stale or unreadable session leaves the client signed
// out; only I/O on the session file is reported as an error.
func (c *Client) Restore(ctx context.Context) error {
	creds, err := c.readCredentials()
	if err != nil {
		c.finishInit(nil)
		return err
	}
	if creds == nil || creds.RefreshToken == "" {
		c.finishInit(nil)
		return nil
	}

	var resp authResponse
	err = c.api.Do(ctx, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: creds.RefreshToken}, &resp)
	if err != nil {
		c.log.Info("stored session could not be restored", zap.String("uid", creds.UID), zap.Error(err))
		if errors.Is(err, api.ErrUnauthenticated) || errors.Is(err, api.ErrPermissionDenied) {
			_ = c.removeCredentials()
		}
		c.finishInit(nil)
		return nil
	}

	c.mu.Lock()
	c.applyLocked(resp)
	c.initialized = true
	id := c.currentLocked()
	c.emitLocked(Event{Identity: id})
	c.mu.Unlock()

	c.log.Debug("session restored", zap.String("uid", resp.User.UID))
	return c.writeCredentials(resp)
}

func (c *Client) finishInit(id *domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = true
	c.emitLocked(Event{Identity: id})
}

// CreateAccount registers a new account and signs it in
func (c *Client) CreateAccount(ctx context.Context, email, password string) (domain.Identity, error) {
	var resp authResponse
	if err := c.api.Do(ctx, http.MethodPost, "/auth/register", "", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return domain.Identity{}, mapError(err)
	}
	return c.signedIn(resp)
}

// SignIn authenticates with email and password
func (c *Client) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	var resp authResponse
	if err := c.api.Do(ctx, http.MethodPost, "/auth/login", "", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return domain.Identity{}, mapError(err)
	}
	return c.signedIn(resp)
}

func (c *Client) signedIn(resp authResponse) (domain.Identity, error) {
	c.mu.Lock()
	c.applyLocked(resp)
	c.initialized = true
	c.emitLocked(Event{Identity: c.currentLocked()})
	c.mu.Unlock()

	if err := c.writeCredentials(resp); err != nil {
		c.log.Warn("failed to persist session", zap.Error(err))
	}
	return resp.User, nil
}

// SignOut revokes the refresh token and clears the session. Revocation is
// best effort; the local session is always cleared.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	if refreshToken != "" {
		if err := c.api.Do(ctx, http.MethodPost, "/auth/logout", "", refreshRequest{RefreshToken: refreshToken}, nil); err != nil {
			c.log.Warn("failed to revoke refresh token", zap.Error(err))
		}
	}

	c.clear()
	return c.removeCredentials()
}

// UpdateDisplayName sets the display name of the signed-in account
func (c *Client) UpdateDisplayName(ctx context.Context, displayName string) (domain.Identity, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	if token == "" {
		return domain.Identity{}, ErrNotSignedIn
	}

	var resp userResponse
	if err := c.api.Do(ctx, http.MethodPut, "/auth/profile", token, profileRequest{DisplayName: displayName}, &resp); err != nil {
		return domain.Identity{}, mapError(err)
	}

	c.mu.Lock()
	if c.identity != nil && c.identity.UID == resp.User.UID {
		user := resp.User
		c.identity = &user
	}
	refreshToken := c.refreshToken
	c.mu.Unlock()

	if err := c.writeCredentials(authResponse{User: resp.User, RefreshToken: refreshToken}); err != nil {
		c.log.Warn("failed to persist session", zap.Error(err))
	}
	return resp.User, nil
}

// Current returns a copy of the signed-in identity
func (c *Client) Current() *domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

// AccessToken returns a valid access token, refreshing it when it is about
// to expire. It returns "" when nobody is signed in.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.identity == nil {
		return "", nil
	}
	if c.accessToken != "" && c.now().Add(refreshSkew).Before(c.accessExpiry) {
		return c.accessToken, nil
	}

	var resp authResponse
	err := c.api.Do(ctx, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: c.refreshToken}, &resp)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) || errors.Is(err, api.ErrPermissionDenied) {
			c.log.Info("session expired", zap.Error(err))
			c.resetLocked()
			c.emitLocked(Event{})
			if rmErr := c.removeCredentials(); rmErr != nil {
				c.log.Warn("failed to remove session file", zap.Error(rmErr))
			}
			return "", ErrNotSignedIn
		}
		return "", err
	}

	c.applyLocked(resp)
	if err := c.writeCredentials(resp); err != nil {
		c.log.Warn("failed to persist session", zap.Error(err))
	}
	return c.accessToken, nil
}

// Subscribe registers for state changes
func (c *Client) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Event, 1)
	c.subs[id] = ch
	if c.initialized {
		ch <- Event{Identity: c.currentLocked()}
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close unsubscribes everyone
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Client) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.initialized = true
	c.emitLocked(Event{})
}

func (c *Client) resetLocked() {
	c.identity = nil
	c.accessToken = ""
	c.accessExpiry = time.Time{}
	c.refreshToken = ""
}

func (c *Client) applyLocked(resp authResponse) {
	user := resp.User
	c.identity = &user
	c.accessToken = resp.AccessToken
	c.refreshToken = resp.RefreshToken
	if exp, err := jwt.ExpiresAt(resp.AccessToken); err == nil {
		c.accessExpiry = exp
	} else {
		c.accessExpiry = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
}

func (c *Client) currentLocked() *domain.Identity {
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// emitLocked delivers ev to every subscriber, replacing an unread event
func (c *Client) emitLocked(ev Event) {
	for _, ch := range c.subs {
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

func (c *Client) readCredentials() (*credentials, error) {
	if c.sessionFile == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.sessionFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var creds credentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		c.log.Warn("ignoring unreadable session file", zap.String("path", c.sessionFile), zap.Error(err))
		return nil, nil
	}
	return &creds, nil
}

func (c *Client) writeCredentials(resp authResponse) error {
	if c.sessionFile == "" {
		return nil
	}
	raw, err := yaml.Marshal(credentials{
		UID:          resp.User.UID,
		Email:        resp.User.Email,
		DisplayName:  resp.User.DisplayName,
		RefreshToken: resp.RefreshToken,
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.sessionFile), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(c.sessionFile, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (c *Client) removeCredentials() error {
	if c.sessionFile == "" {
		return nil
	}
	if err := os.Remove(c.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func mapError(err error) error {
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrAlreadyExists):
		return ErrEmailInUse
	case errors.Is(err, api.ErrUnauthenticated):
		return ErrInvalidCredentials
	case errors.Is(err, api.ErrPermissionDenied):
		return ErrAccountDisabled
	case errors.Is(err, api.ErrInvalidArgument) && errors.As(err, &apiErr):
		return &inputError{msg: apiErr.Message}
	default:
		return err
	}
}
