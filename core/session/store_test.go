package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualcampus/campus/core/session"
	testutil "github.com/virtualcampus/campus/tests"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func Test_Store_initAnonymous(t *testing.T) {
	backend := testutil.NewFakeBackend()
	store := session.NewStore(backend, testutil.NewLogger(t), nil)
	ctx := context.Background()

	store.Init(ctx)

	require.True(t, store.WaitReady(ctx))
	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Authenticated())
	assert.True(t, snap.Session.IsAnonymous())
	assert.Nil(t, snap.Profile)
}

func Test_Store_initFailsClosed(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.GetSessionFunc = func(ctx context.Context) (*session.Session, error) {
		return nil, session.NewAuthError(session.CodeNetwork, "down")
	}
	store := session.NewStore(backend, testutil.NewLogger(t), nil)
	ctx := context.Background()

	store.Init(ctx)

	// a failed resolution still readies the store, as anonymous
	require.True(t, store.WaitReady(ctx))
	assert.False(t, store.Snapshot().Authenticated())
}

func Test_Store_applyResolvesProfile(t *testing.T) {
	backend := testutil.NewFakeBackend()
	ident := backend.AddAccount(t, "kim@test.cd", "LePassw0rd!", "Kim", "Jones", session.RoleStudent, true)
	store := session.NewStore(backend, testutil.NewLogger(t), nil)
	ctx := context.Background()

	store.Apply(ctx, testutil.MakeSession(ident))

	snap := store.Snapshot()
	assert.True(t, snap.Authenticated())
	assert.Eventually(t, func() bool {
		p := store.Profile()
		return p != nil && p.ID == ident.ID && p.Role == session.RoleStudent
	}, waitFor, tick, "profile never resolved")

	// signing out clears the profile with the session
	store.Apply(ctx, nil)
	snap = store.Snapshot()
	assert.False(t, snap.Authenticated())
	assert.Nil(t, snap.Profile)
}

func Test_Store_profileFetchFailureIsNotAnError(t *testing.T) {
	backend := testutil.NewFakeBackend()
	ident := backend.AddAccount(t, "kim@test.cd", "LePassw0rd!", "Kim", "Jones", session.RoleStudent, true)
	fetched := make(chan struct{})
	backend.GetProfileFunc = func(ctx context.Context, identityID string) (*session.Profile, error) {
		defer close(fetched)
		return nil, session.NewAuthError(session.CodeBackend, "profiles unavailable")
	}
	store := session.NewStore(backend, testutil.NewLogger(t), nil)

	store.Apply(context.Background(), testutil.MakeSession(ident))

	<-fetched
	assert.Eventually(t, func() bool { return store.Profile() == nil }, waitFor, tick)
	assert.True(t, store.Snapshot().Authenticated(), "session must survive a failed profile fetch")
}

// A slow profile fetch for an old identity must never clobber the profile of
// the identity that signed in after it.
func Test_Store_staleProfileFetchDiscarded(t *testing.T) {
	backend := testutil.NewFakeBackend()
	identA := backend.AddAccount(t, "a@test.cd", "LePassw0rd!", "Aya", "Ba", session.RoleStudent, true)
	identB := backend.AddAccount(t, "b@test.cd", "LePassw0rd!", "Ben", "Cole", session.RoleInstructor, true)

	profileA := backend.Profiles[identA.ID]
	profileB := backend.Profiles[identB.ID]
	releaseA := make(chan struct{})
	backend.GetProfileFunc = func(ctx context.Context, identityID string) (*session.Profile, error) {
		if identityID == identA.ID {
			<-releaseA // simulate a slow fetch
			cp := profileA
			return &cp, nil
		}
		cp := profileB
		return &cp, nil
	}

	store := session.NewStore(backend, testutil.NewLogger(t), nil)
	ctx := context.Background()

	store.Apply(ctx, testutil.MakeSession(identA))
	store.Apply(ctx, testutil.MakeSession(identB))

	assert.Eventually(t, func() bool {
		p := store.Profile()
		return p != nil && p.ID == identB.ID
	}, waitFor, tick, "profile for the current identity never resolved")

	// let A's fetch complete late; its result must be discarded
	close(releaseA)
	time.Sleep(50 * time.Millisecond)
	p := store.Profile()
	require.NotNil(t, p)
	assert.Equal(t, identB.ID, p.ID, "stale profile fetch clobbered the current identity's profile")
}

func Test_Store_subscribe(t *testing.T) {
	backend := testutil.NewFakeBackend()
	store := session.NewStore(backend, testutil.NewLogger(t), nil)
	ctx := context.Background()

	var mu sync.Mutex
	var got []session.State
	unsubscribe := store.Subscribe(func(st session.State) {
		mu.Lock()
		got = append(got, st)
		mu.Unlock()
	})

	store.Apply(ctx, nil)
	mu.Lock()
	require.Len(t, got, 1)
	assert.False(t, got[0].Loading)
	mu.Unlock()

	unsubscribe()
	unsubscribe() // safe to call twice
	store.Apply(ctx, nil)
	mu.Lock()
	assert.Len(t, got, 1, "unsubscribed subscriber was notified")
	mu.Unlock()
}

func Test_Store_waitReadyHonorsContext(t *testing.T) {
	backend := testutil.NewFakeBackend()
	store := session.NewStore(backend, testutil.NewLogger(t), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, store.WaitReady(ctx), "WaitReady must give up when the context ends")
}
