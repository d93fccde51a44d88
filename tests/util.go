// Package testutil provides the in-memory Backend fake and small helpers shared
// by the package test suites.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/virtualcampus/campus/core"
	"github.com/virtualcampus/campus/core/session"
)

// FakeBackend is an in-memory session.Backend. Zero-value maps are initialized
// by NewFakeBackend; tests may override individual behaviors via the *Func
// hooks and push events straight into Events.
type FakeBackend struct {
	mu         sync.Mutex
	Identities map[string]session.Identity // by email
	Passwords  map[string]string           // by email
	Profiles   map[string]session.Profile  // by identity ID
	Tokens     map[string]*session.Session // by access token, for SetSession
	Session    *session.Session

	Events chan session.Event

	GetSessionFunc    func(ctx context.Context) (*session.Session, error)
	GetUserFunc       func(ctx context.Context) (*session.Identity, error)
	GetProfileFunc    func(ctx context.Context, identityID string) (*session.Profile, error)
	ProfileExistsFunc func(ctx context.Context, email string) (bool, error)

	SignInErr error
	SignUpErr error
	ResetErr  error
	ResendErr error

	ResetCalls  []string
	ResendCalls []string
}

var _ session.Backend = (*FakeBackend)(nil)

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Identities: make(map[string]session.Identity),
		Passwords:  make(map[string]string),
		Profiles:   make(map[string]session.Profile),
		Tokens:     make(map[string]*session.Session),
		Events:     make(chan session.Event, 16),
	}
}

func (b *FakeBackend) Close() { close(b.Events) }

func (b *FakeBackend) AuthEvents() <-chan session.Event { return b.Events }

// AddAccount registers an identity, its password and its profile; it returns
// the identity.
func (b *FakeBackend) AddAccount(t *testing.T, email, pwd, firstName, lastName, role string, confirmed bool) session.Identity {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	ident := session.Identity{
		ID:    uuid.New().String(),
		Email: email,
	}
	if confirmed {
		now := time.Now().UTC()
		ident.EmailConfirmedAt = &now
	}
	b.Identities[email] = ident
	b.Passwords[email] = pwd
	b.Profiles[ident.ID] = session.Profile{
		ID:        ident.ID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	return ident
}

// MakeSession builds a live session for ident with fresh random tokens.
func MakeSession(ident session.Identity) *session.Session {
	return &session.Session{
		AccessToken:  uuid.New().String(),
		RefreshToken: uuid.New().String(),
		ExpiresAt:    time.Now().Add(time.Hour),
		Identity:     &ident,
	}
}

func (b *FakeBackend) GetSession(ctx context.Context) (*session.Session, error) {
	if b.GetSessionFunc != nil {
		return b.GetSessionFunc(ctx)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Session == nil {
		return nil, nil
	}
	cp := *b.Session
	return &cp, nil
}

func (b *FakeBackend) GetUser(ctx context.Context) (*session.Identity, error) {
	if b.GetUserFunc != nil {
		return b.GetUserFunc(ctx)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Session == nil || b.Session.Identity == nil {
		return nil, nil
	}
	cp := *b.Session.Identity
	return &cp, nil
}

func (b *FakeBackend) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	if b.SignInErr != nil {
		return nil, b.SignInErr
	}
	b.mu.Lock()
	ident, ok := b.Identities[email]
	pwdOK := ok && b.Passwords[email] == password
	b.mu.Unlock()
	if !pwdOK {
		return nil, session.NewAuthError(session.CodeInvalidCredentials, "invalid login credentials")
	}

	sess := MakeSession(ident)
	b.setSession(sess, session.EventSignedIn)
	return sess, nil
}

func (b *FakeBackend) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*session.Identity, *session.Session, error) {
	if b.SignUpErr != nil {
		return nil, nil, b.SignUpErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.Identities[email]; exists {
		return nil, nil, session.NewAuthError(session.CodeBackend, "user already registered")
	}
	ident := session.Identity{
		ID:       uuid.New().String(),
		Email:    email,
		Metadata: metadata,
	}
	b.Identities[email] = ident
	b.Passwords[email] = password
	return &ident, nil, nil
}

func (b *FakeBackend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	signedIn := b.Session != nil
	b.mu.Unlock()
	if signedIn {
		b.setSession(nil, session.EventSignedOut)
	}
	return nil
}

func (b *FakeBackend) ResetPasswordForEmail(ctx context.Context, email string) error {
	b.mu.Lock()
	b.ResetCalls = append(b.ResetCalls, email)
	b.mu.Unlock()
	return b.ResetErr
}

func (b *FakeBackend) Resend(ctx context.Context, typ, email string) error {
	b.mu.Lock()
	b.ResendCalls = append(b.ResendCalls, email)
	b.mu.Unlock()
	return b.ResendErr
}

func (b *FakeBackend) SetSession(ctx context.Context, accessToken, refreshToken string) (*session.Session, error) {
	b.mu.Lock()
	sess, ok := b.Tokens[accessToken]
	b.mu.Unlock()
	if !ok {
		return nil, session.NewAuthError(session.CodeInvalidCredentials, "invalid token material")
	}
	b.setSession(sess, session.EventSignedIn)
	return sess, nil
}

func (b *FakeBackend) GetProfile(ctx context.Context, identityID string) (*session.Profile, error) {
	if b.GetProfileFunc != nil {
		return b.GetProfileFunc(ctx, identityID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	profile, ok := b.Profiles[identityID]
	if !ok {
		return nil, session.NewAuthError(session.CodeBackend, "profile not found")
	}
	cp := profile
	return &cp, nil
}

func (b *FakeBackend) ProfileExistsByEmail(ctx context.Context, email string) (bool, error) {
	if b.ProfileExistsFunc != nil {
		return b.ProfileExistsFunc(ctx, email)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, profile := range b.Profiles {
		if profile.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (b *FakeBackend) setSession(sess *session.Session, typ session.EventType) {
	b.mu.Lock()
	b.Session = sess
	b.mu.Unlock()
	b.Events <- session.Event{Type: typ, Session: sess}
}

// Logger routes core.Logger output to the test log.
type Logger struct {
	t *testing.T
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t *testing.T) *Logger { return &Logger{t: t} }

func (l *Logger) Debug(msg string, args ...interface{}) { l.t.Logf("DEBUG: %s %v", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.t.Logf("INFO: %s %v", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.t.Logf("WARN: %s %v", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.t.Logf("ERROR: %s %v", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.t.Fatalf("FATAL: %s %v", msg, args) }
