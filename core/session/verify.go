package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/virtualcampus/campus/core"
)

type VerifyState string

const (
	StateAwaitingLink VerifyState = "awaiting_link"
	StateConfirmed    VerifyState = "confirmed"
)

// Verifier manages the gap between sign-up and a confirmed, usable identity.
//
// Three independent paths transition it to StateConfirmed, any one of which is
// sufficient: a confirmation deep link carrying token material (HandleCallback),
// a session found already confirmed at load time (CheckExisting), and a live
// SIGNED_IN notification with a confirmed email (OnConfirmed, wired into the
// Listener). Finalization runs at most once regardless of how many paths fire.
type Verifier struct {
	backend Backend
	local   LocalStore
	logger  core.Logger
	metrics Metrics

	redirectDelay time.Duration
	afterFunc     func(time.Duration, func()) // mockable
	onRedirect    func()

	mu        sync.Mutex
	finalized bool
}

func NewVerifier(backend Backend, local LocalStore, logger core.Logger, metrics Metrics, redirectDelay time.Duration) *Verifier {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Verifier{
		backend:       backend,
		local:         local,
		logger:        logger,
		metrics:       metrics,
		redirectDelay: redirectDelay,
		afterFunc:     func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// OnRedirect registers the action scheduled redirectDelay after finalization
// (the web layer redirects into the protected area). Must be set before any
// confirmation path can fire.
func (v *Verifier) OnRedirect(fn func()) {
	v.onRedirect = fn
}

func (v *Verifier) State() VerifyState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.finalized {
		return StateConfirmed
	}
	return StateAwaitingLink
}

func (v *Verifier) Finalized() bool {
	return v.State() == StateConfirmed
}

// Pending returns the client-local record of the sign-up awaiting confirmation.
func (v *Verifier) Pending() PendingVerification {
	return loadPendingVerification(v.local)
}

// HandleCallback consumes a confirmation deep link: the navigation request's
// query parameters carry token material which is exchanged for a session.
func (v *Verifier) HandleCallback(ctx context.Context, accessToken, refreshToken, typ string) (*Session, error) {
	if typ != "signup" || accessToken == "" || refreshToken == "" {
		return nil, NewAuthError(CodeBackend, "invalid confirmation link")
	}
	sess, err := v.backend.SetSession(ctx, accessToken, refreshToken)
	if err != nil {
		return nil, AsAuthError(err)
	}
	if !sess.IsAnonymous() {
		v.finalize()
	}
	return sess, nil
}

// CheckExisting looks for a session established by a previous tab or visit whose
// email is already confirmed. Failures leave the flow in AwaitingLink.
func (v *Verifier) CheckExisting(ctx context.Context) VerifyState {
	sess, err := v.backend.GetSession(ctx)
	if err != nil {
		v.logger.Warn("verification session check failed", errors.Wrap(err, "backend.GetSession"))
		return v.State()
	}
	if sess != nil && sess.EmailConfirmed() {
		v.finalize()
		return v.State()
	}
	if sess == nil {
		if ident, err := v.backend.GetUser(ctx); err == nil && ident != nil && ident.EmailConfirmed() {
			v.finalize()
		}
	}
	return v.State()
}

// OnConfirmed is the live-notification path, invoked by the Listener on
// SIGNED_IN events carrying a confirmed email.
func (v *Verifier) OnConfirmed(ident Identity) {
	if ident.EmailConfirmed() {
		v.finalize()
	}
}

// finalize clears the pending record and schedules the single redirect into the
// protected area. Racing confirmation paths collapse onto the finalized flag;
// only the first caller performs the side effects.
func (v *Verifier) finalize() {
	v.mu.Lock()
	if v.finalized {
		v.mu.Unlock()
		return
	}
	v.finalized = true
	v.mu.Unlock()

	if err := clearPendingVerification(v.local); err != nil {
		v.logger.Error("finalizing verification", err)
	}
	v.metrics.VerificationFinalized()
	v.logger.Info("email verified")

	if v.onRedirect != nil {
		v.afterFunc(v.redirectDelay, v.onRedirect)
	}
}

// Resend re-requests the confirmation email for the pending address. There is no
// local throttling; a backend throttling response surfaces as an AuthError.
func (v *Verifier) Resend(ctx context.Context) error {
	email := loadPendingVerification(v.local).Email
	if email == "" {
		return ErrNoPendingEmail
	}
	if err := v.backend.Resend(ctx, "signup", email); err != nil {
		return AsAuthError(err)
	}
	return nil
}

// Restart abandons the pending sign-up so the user can start over.
func (v *Verifier) Restart() error {
	return clearPendingVerification(v.local)
}
