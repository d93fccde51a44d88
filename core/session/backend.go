package session

import "context"

// Auth state change event tags, as emitted by the hosted backend's push channel.
type EventType string

const (
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// Event is one auth-state-change notification. Session is nil on sign-out.
type Event struct {
	Type    EventType
	Session *Session
}

// Backend is the consumed contract of the hosted authentication and data API.
// The services/backend package implements it over HTTP; tests substitute an
// in-memory fake. Delivery on AuthEvents is at-least-once and order-preserving.
type Backend interface {
	// GetSession returns the current session, or nil when anonymous. It does not
	// suspend after the first resolution.
	GetSession(ctx context.Context) (*Session, error)
	GetUser(ctx context.Context) (*Identity, error)

	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// SignUp creates an unconfirmed identity. The returned session is nil until
	// the email is confirmed.
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Identity, *Session, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	Resend(ctx context.Context, typ, email string) error
	// SetSession adopts token material delivered out of band (confirmation deep
	// links carry it in query parameters).
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)

	// AuthEvents is the push channel; closed when the backend client shuts down.
	AuthEvents() <-chan Event

	GetProfile(ctx context.Context, identityID string) (*Profile, error)
	ProfileExistsByEmail(ctx context.Context, email string) (bool, error)
}
