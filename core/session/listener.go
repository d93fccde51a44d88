package session

import (
	"context"
	"fmt"

	"github.com/virtualcampus/campus/core"
)

// Listener bridges the backend's asynchronous auth-state-change notifications
// and the Store's synchronous read model. It is the sole writer to the Store.
type Listener struct {
	backend Backend
	store   *Store
	logger  core.Logger
	metrics Metrics

	onConfirmed func(Identity)
}

func NewListener(backend Backend, store *Store, logger core.Logger, metrics Metrics) *Listener {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Listener{
		backend: backend,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
}

// OnConfirmed registers the hook invoked when a SIGNED_IN notification carries a
// confirmed email — the trigger point that finalizes a pending verification.
// Must be set before Run.
func (l *Listener) OnConfirmed(fn func(Identity)) {
	l.onConfirmed = fn
}

// Run consumes notifications until ctx is done or the backend closes the
// channel. Events are applied strictly in receipt order. Run returns after the
// subscription is released; no notification is handled past that point.
func (l *Listener) Run(ctx context.Context) {
	events := l.backend.AuthEvents()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			l.handle(ctx, evt)
		}
	}
}

// handle applies one notification. An unexpected internal failure degrades the
// session to anonymous (fail closed, never open).
func (l *Listener) handle(ctx context.Context, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("auth event handling panicked", fmt.Errorf("%v", r))
			l.store.Apply(ctx, nil)
		}
	}()

	l.metrics.AuthEvent(string(evt.Type))
	l.store.Apply(ctx, evt.Session)

	if evt.Type == EventSignedIn && evt.Session != nil && evt.Session.EmailConfirmed() && l.onConfirmed != nil {
		l.onConfirmed(*evt.Session.Identity)
	}
}
