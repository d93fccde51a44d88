package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/virtualcampus/campus/core"
)

// Store is the single source of truth for "who is logged in right now". There is
// one Store per running client; reads never block and never hit the network.
// Only the Listener writes to it (via Apply); everything else reads.
type Store struct {
	backend Backend
	logger  core.Logger
	metrics Metrics

	mu      sync.RWMutex
	current Session
	profile *Profile
	loading bool
	gen     uint64 // bumped on every identity change; guards stale profile fetches

	ready     chan struct{}
	readyOnce sync.Once

	subsMu sync.Mutex
	subs   map[int]func(State)
	nextID int
}

func NewStore(backend Backend, logger core.Logger, metrics Metrics) *Store {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Store{
		backend: backend,
		logger:  logger,
		metrics: metrics,
		loading: true,
		ready:   make(chan struct{}),
		subs:    make(map[int]func(State)),
	}
}

// Init performs the first session resolution. Failures resolve to the anonymous
// session (fail closed); the Store still becomes ready so consumers are not
// blocked forever.
func (s *Store) Init(ctx context.Context) {
	sess, err := s.backend.GetSession(ctx)
	if err != nil {
		s.logger.Error("resolving initial session", errors.Wrap(err, "backend.GetSession"))
		sess = nil
	}
	s.Apply(ctx, sess)
}

// Current returns the last-known session. It returns the anonymous session until
// the first resolution completes.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Profile returns the cached profile for the current identity, or nil when it has
// not resolved (yet, or at all — absence is not an error state).
func (s *Store) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Loading reports whether the first session resolution is still pending.
// Consumers must not make auth decisions while it returns true.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Session: s.current, Profile: s.profile, Loading: s.loading}
}

// WaitReady blocks until the first resolution completes or ctx is done; it
// reports whether the Store is ready.
func (s *Store) WaitReady(ctx context.Context) bool {
	select {
	case <-s.ready:
		return true
	case <-ctx.Done():
		return false
	}
}

// Subscribe registers fn to be called on every state change, including no-op
// reconfirmations. Notification order among subscribers is unspecified. The
// returned function unregisters fn; it is safe to call more than once.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Apply replaces the current session and triggers a best-effort profile refresh
// keyed by the new identity. A nil session means anonymous. Updates are applied
// in call order; the Listener is the sole caller once the application is wired.
func (s *Store) Apply(ctx context.Context, sess *Session) {
	s.mu.Lock()
	if sess != nil {
		s.current = *sess
	} else {
		s.current = Session{}
	}
	s.loading = false
	s.gen++
	gen := s.gen
	ident := s.current.Identity
	if ident == nil {
		s.profile = nil
	}
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	s.notify()

	if ident != nil {
		go s.refreshProfile(ctx, ident.ID, gen)
	}
}

// refreshProfile resolves the profile for identityID. The result is discarded if
// the identity generation moved on while the fetch was in flight.
func (s *Store) refreshProfile(ctx context.Context, identityID string, gen uint64) {
	profile, err := s.backend.GetProfile(ctx, identityID)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return // stale result; a newer identity owns the profile slot now
	}
	if err != nil {
		// transient fetch failure: the view renders an unresolved display,
		// never an error banner
		s.profile = nil
		s.mu.Unlock()
		s.metrics.ProfileFetchFailure()
		s.logger.Warn("profile fetch failed", errors.Wrap(err, "backend.GetProfile"))
		return
	}
	s.profile = profile
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	snapshot := s.Snapshot()

	s.subsMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
