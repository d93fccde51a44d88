package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/virtualcampus/campus/core"
)

// Gateway is the single choke point for all identity-mutating operations. It
// never writes to the Store itself: session updates always arrive through the
// Listener, which is the sole writer (avoids double-write races).
//
// Operations are serialized per Gateway instance; none of them may be invoked
// concurrently with conflicting intent for the same identity.
type Gateway struct {
	backend Backend
	local   LocalStore
	logger  core.Logger
	metrics Metrics

	mu sync.Mutex
}

func NewGateway(backend Backend, local LocalStore, logger core.Logger, metrics Metrics) *Gateway {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Gateway{
		backend: backend,
		local:   local,
		logger:  logger,
		metrics: metrics,
	}
}

// SignIn establishes a session with the backend. The Session Store is updated as
// a side effect via the auth-state-change notification, not here.
func (g *Gateway) SignIn(ctx context.Context, email, password string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	email = core.CleanString(email, true /* lower */)
	if _, err := g.backend.SignInWithPassword(ctx, email, password); err != nil {
		aErr := AsAuthError(err)
		g.metrics.AuthError(aErr.Code)
		return aErr
	}
	g.metrics.AuthOperation("sign_in")
	return nil
}

// SignUp creates an unconfirmed identity and records the Pending Verification
// Record. The pre-flight duplicate check is a UX fast path only; the backend's
// uniqueness constraint remains authoritative for duplicates created in the
// check-then-act window.
func (g *Gateway) SignUp(ctx context.Context, acct NewAccount) (*Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	exists, err := g.backend.ProfileExistsByEmail(ctx, acct.Email)
	if err != nil {
		// transient failure of the fast path; let the backend constraint decide
		g.logger.Warn("duplicate pre-flight check failed", errors.Wrap(err, "backend.ProfileExistsByEmail"))
	} else if exists {
		aErr := newDuplicateAccountError()
		g.metrics.AuthError(aErr.Code)
		return nil, aErr
	}

	ident, _, err := g.backend.SignUp(ctx, acct.Email, acct.Password, acct.Draft().Metadata(acct.Email))
	if err != nil {
		aErr := AsAuthError(err)
		g.metrics.AuthError(aErr.Code)
		return nil, aErr
	}

	if err := savePendingVerification(g.local, acct.Email, acct.Draft()); err != nil {
		// the verify screen falls back to its email-less rendering
		g.logger.Error("saving pending verification record", err)
	}
	g.metrics.AuthOperation("sign_up")
	return ident, nil
}

// SignOut clears the remote session. It is idempotent; the Listener observes the
// resulting transition and clears the Store.
func (g *Gateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.backend.SignOut(ctx); err != nil {
		aErr := AsAuthError(err)
		g.metrics.AuthError(aErr.Code)
		return aErr
	}
	g.metrics.AuthOperation("sign_out")
	return nil
}

// ResetPassword requests a reset email. It reports success whether or not the
// email belongs to an account (no account enumeration); only transport-level
// failures surface as errors.
func (g *Gateway) ResetPassword(ctx context.Context, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	email = core.CleanString(email, true /* lower */)
	if err := g.backend.ResetPasswordForEmail(ctx, email); err != nil {
		aErr := AsAuthError(err)
		if aErr.Code == CodeNetwork {
			g.metrics.AuthError(aErr.Code)
			return aErr
		}
		g.logger.Warn("password reset request rejected", errors.Wrap(err, "backend.ResetPasswordForEmail"))
	}
	g.metrics.AuthOperation("password_reset")
	return nil
}

// ResendVerification asks the backend to re-send the sign-up confirmation email.
// No local throttling: a backend throttling response surfaces as an AuthError.
func (g *Gateway) ResendVerification(ctx context.Context, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	email = core.CleanString(email, true /* lower */)
	if err := g.backend.Resend(ctx, "signup", email); err != nil {
		aErr := AsAuthError(err)
		g.metrics.AuthError(aErr.Code)
		return aErr
	}
	g.metrics.AuthOperation("resend_verification")
	return nil
}
