// Package backendsvc is the HTTP client for the hosted backend-as-a-service:
// a GoTrue-style authentication API plus a PostgREST-style records API. It is
// the only component that talks to the network.
package backendsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/virtualcampus/campus/core"
	"github.com/virtualcampus/campus/core/session"
)

// sessionKey is the client-local key holding the persisted session tokens.
const sessionKey = "campus.session"

var nowFunc = time.Now // mockable

type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	local   session.LocalStore
	logger  core.Logger

	mu      sync.RWMutex
	current *session.Session

	events    chan session.Event
	closed    chan struct{}
	closeOnce sync.Once
}

var _ session.Backend = (*Client)(nil)

func NewClient(conf *core.Config, local session.LocalStore, logger core.Logger) *Client {
	c := &Client{
		baseURL: conf.Backend.URL,
		anonKey: conf.Backend.AnonKey,
		http:    &http.Client{},
		local:   local,
		logger:  logger,
		events:  make(chan session.Event, 64),
		closed:  make(chan struct{}),
	}
	c.restore()
	return c
}

// Close releases the push channel. No event is delivered afterwards.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		close(c.events)
	})
}

// AuthEvents is the push channel consumed by the session Listener.
func (c *Client) AuthEvents() <-chan session.Event {
	return c.events
}

// restore loads the persisted session, if any, and emits the initial event so
// the Listener's first application reflects it.
func (c *Client) restore() {
	if data, ok := c.local.Get(sessionKey); ok {
		var sess session.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			c.logger.Warn("discarding corrupt persisted session", err)
			_ = c.local.Delete(sessionKey)
		} else {
			c.current = &sess
		}
	}
	c.emit(session.Event{Type: session.EventInitialSession, Session: c.current})
}

// GetSession returns the current session, or nil when anonymous. It only
// suspends when the persisted session has expired and a refresh is attempted.
func (c *Client) GetSession(ctx context.Context) (*session.Session, error) {
	c.mu.RLock()
	sess := c.current
	c.mu.RUnlock()

	if sess == nil {
		return nil, nil
	}
	if !sess.ExpiresAt.IsZero() && nowFunc().After(sess.ExpiresAt) {
		return c.refreshSession(ctx, sess.RefreshToken)
	}
	cp := *sess
	return &cp, nil
}

func (c *Client) GetUser(ctx context.Context) (*session.Identity, error) {
	var ident session.Identity
	err := c.do(ctx, apiRequest{method: http.MethodGet, path: "/auth/v1/user", authed: true}, &ident)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	var tok tokenResponse
	err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		params: url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &tok)
	if err != nil {
		return nil, err
	}
	sess := tok.toSession()
	c.setCurrent(sess, session.EventSignedIn)
	return sess, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*session.Identity, *session.Session, error) {
	var resp struct {
		User    *session.Identity `json:"user"`
		Session *tokenResponse    `json:"session"`
	}
	err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body: map[string]interface{}{
			"email":    email,
			"password": password,
			"data":     metadata,
		},
	}, &resp)
	if err != nil {
		return nil, nil, err
	}

	// with email confirmation enabled the session stays nil until the
	// confirmation link is followed
	var sess *session.Session
	if resp.Session != nil {
		sess = resp.Session.toSession()
		c.setCurrent(sess, session.EventSignedIn)
	}
	return resp.User, sess, nil
}

// SignOut is idempotent: signing out an anonymous client is a no-op. The local
// session is cleared even when the remote revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	sess := c.current
	c.mu.RUnlock()
	if sess == nil {
		return nil
	}

	err := c.do(ctx, apiRequest{method: http.MethodPost, path: "/auth/v1/logout", authed: true}, nil)
	c.setCurrent(nil, session.EventSignedOut)
	return err
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	return c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		body:   map[string]string{"email": email},
	}, nil)
}

func (c *Client) Resend(ctx context.Context, typ, email string) error {
	return c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   "/auth/v1/resend",
		body:   map[string]string{"type": typ, "email": email},
	}, nil)
}

// SetSession adopts token material carried by a confirmation deep link. The
// identity is fetched with the supplied token; expiry comes from the token's
// own claims.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*session.Session, error) {
	claims, err := decodeAccessToken(accessToken)
	if err != nil {
		return nil, session.NewAuthError(session.CodeBackend, "malformed access token", err)
	}

	var ident session.Identity
	if err := c.do(ctx, apiRequest{method: http.MethodGet, path: "/auth/v1/user", token: accessToken}, &ident); err != nil {
		return nil, err
	}

	sess := &session.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Unix(claims.ExpiresAt, 0),
		Identity:     &ident,
	}
	c.setCurrent(sess, session.EventSignedIn)
	return sess, nil
}

// refreshSession exchanges the refresh token; on failure the local session is
// cleared (fail closed to anonymous).
func (c *Client) refreshSession(ctx context.Context, refreshToken string) (*session.Session, error) {
	var tok tokenResponse
	err := c.do(ctx, apiRequest{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		params: url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &tok)
	if err != nil {
		c.logger.Warn("session refresh failed", err)
		c.setCurrent(nil, session.EventSignedOut)
		return nil, nil
	}
	sess := tok.toSession()
	c.setCurrent(sess, session.EventTokenRefreshed)
	return sess, nil
}

func (c *Client) GetProfile(ctx context.Context, identityID string) (*session.Profile, error) {
	var profile session.Profile
	err := c.From("profiles").Select("*").Eq("id", identityID).Single().Get(ctx, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) ProfileExistsByEmail(ctx context.Context, email string) (bool, error) {
	var rows []struct {
		Email string `json:"email"`
	}
	err := c.From("profiles").Select("email").Eq("email", email).Limit(1).Get(ctx, &rows)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// setCurrent replaces the in-memory session, persists it and pushes the
// corresponding auth-state-change event.
func (c *Client) setCurrent(sess *session.Session, typ session.EventType) {
	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()
	c.persist(sess)
	c.emit(session.Event{Type: typ, Session: sess})
}

func (c *Client) persist(sess *session.Session) {
	if sess == nil {
		if err := c.local.Delete(sessionKey); err != nil {
			c.logger.Error("clearing persisted session", err)
		}
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		c.logger.Error("persisting session", errors.Wrap(err, "marshalling session"))
		return
	}
	if err := c.local.Set(sessionKey, string(data)); err != nil {
		c.logger.Error("persisting session", err)
	}
}

func (c *Client) emit(evt session.Event) {
	select {
	case <-c.closed:
	case c.events <- evt:
	}
}

// apiRequest describes one call to the hosted backend.
type apiRequest struct {
	method string
	path   string
	params url.Values
	body   interface{}
	token  string // overrides the session/anon token
	prefer string
	accept string
	authed bool // use the current session's access token when present
}

func (c *Client) do(ctx context.Context, r apiRequest, dest interface{}) error {
	var rdr *bytes.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return errors.Wrap(err, "marshalling request body")
		}
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}

	u := c.baseURL + r.path
	if len(r.params) > 0 {
		u += "?" + r.params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, rdr)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", r.method, r.path)
	}

	token := r.token
	if token == "" {
		token = c.anonKey
		if r.authed {
			c.mu.RLock()
			if c.current != nil {
				token = c.current.AccessToken
			}
			c.mu.RUnlock()
		}
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return session.NewAuthError(session.CodeNetwork, "could not reach the backend service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if dest != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", r.method, r.path)
		}
	}
	return nil
}

// tokenResponse is the token endpoint's payload shape.
type tokenResponse struct {
	AccessToken  string            `json:"access_token"`
	TokenType    string            `json:"token_type"`
	ExpiresIn    int               `json:"expires_in"`
	RefreshToken string            `json:"refresh_token"`
	User         *session.Identity `json:"user"`
}

func (t tokenResponse) toSession() *session.Session {
	return &session.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    nowFunc().Add(time.Duration(t.ExpiresIn) * time.Second),
		Identity:     t.User,
	}
}
