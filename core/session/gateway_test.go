package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualcampus/campus/core/session"
	localstore "github.com/virtualcampus/campus/storage/local"
	testutil "github.com/virtualcampus/campus/tests"
)

func newAccount(email string) session.NewAccount {
	return session.NewAccount{
		Email:           email,
		Password:        "LePassw0rd!",
		PasswordConfirm: "LePassw0rd!",
		FirstName:       "Kim",
		LastName:        "Jones",
		Role:            session.RoleStudent,
	}
}

func Test_Gateway_signIn(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.AddAccount(t, "kim@test.cd", "LePassw0rd!", "Kim", "Jones", session.RoleStudent, true)
	gw := session.NewGateway(backend, localstore.NewMemStore(), testutil.NewLogger(t), nil)
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, gw.SignIn(ctx, "kim@test.cd", "LePassw0rd!"))
	})

	t.Run("email is normalized", func(t *testing.T) {
		require.NoError(t, gw.SignIn(ctx, "  Kim@Test.CD ", "LePassw0rd!"))
	})

	t.Run("bad password", func(t *testing.T) {
		err := gw.SignIn(ctx, "kim@test.cd", "nope")
		require.Error(t, err)
		assert.True(t, session.IsAuthErrorCode(err, session.CodeInvalidCredentials))
	})

	t.Run("unknown failures are normalized", func(t *testing.T) {
		backend.SignInErr = assert.AnError
		defer func() { backend.SignInErr = nil }()

		err := gw.SignIn(ctx, "kim@test.cd", "LePassw0rd!")
		require.Error(t, err)
		assert.True(t, session.IsAuthErrorCode(err, session.CodeBackend))
	})
}

func Test_Gateway_signUp(t *testing.T) {
	ctx := context.Background()

	t.Run("records the pending verification", func(t *testing.T) {
		backend := testutil.NewFakeBackend()
		ls := localstore.NewMemStore()
		gw := session.NewGateway(backend, ls, testutil.NewLogger(t), nil)

		ident, err := gw.SignUp(ctx, newAccount("kim@test.cd"))
		require.NoError(t, err)
		require.NotNil(t, ident)
		assert.Equal(t, "kim@test.cd", ident.Email)

		email, ok := ls.Get("pendingVerificationEmail")
		require.True(t, ok, "pending email not recorded")
		assert.Equal(t, "kim@test.cd", email)
		flag, _ := ls.Get("pendingSignupSuccess")
		assert.Equal(t, "true", flag)
		_, ok = ls.Get("pendingUserData")
		assert.True(t, ok, "profile draft not recorded")

		// display data reaches the backend as identity metadata
		assert.Equal(t, "Kim", backend.Identities["kim@test.cd"].Metadata["first_name"])
		assert.Equal(t, session.RoleStudent, backend.Identities["kim@test.cd"].Metadata["role"])
	})

	t.Run("duplicate is caught before the account call", func(t *testing.T) {
		backend := testutil.NewFakeBackend()
		backend.AddAccount(t, "kim@test.cd", "Other0ne!", "Kim", "Jones", session.RoleStudent, true)
		ls := localstore.NewMemStore()
		gw := session.NewGateway(backend, ls, testutil.NewLogger(t), nil)

		_, err := gw.SignUp(ctx, newAccount("kim@test.cd"))
		require.Error(t, err)
		assert.True(t, session.IsDuplicateAccount(err))
		assert.Equal(t, 0, ls.Len(), "pending record written for a rejected sign-up")
	})

	t.Run("pre-flight failure falls back to the backend constraint", func(t *testing.T) {
		backend := testutil.NewFakeBackend()
		backend.ProfileExistsFunc = func(ctx context.Context, email string) (bool, error) {
			return false, session.NewAuthError(session.CodeNetwork, "down")
		}
		gw := session.NewGateway(backend, localstore.NewMemStore(), testutil.NewLogger(t), nil)

		ident, err := gw.SignUp(ctx, newAccount("kim@test.cd"))
		require.NoError(t, err)
		assert.NotNil(t, ident)
	})
}

func Test_Gateway_signOutIsIdempotent(t *testing.T) {
	backend := testutil.NewFakeBackend()
	gw := session.NewGateway(backend, localstore.NewMemStore(), testutil.NewLogger(t), nil)
	ctx := context.Background()

	require.NoError(t, gw.SignOut(ctx))
	require.NoError(t, gw.SignOut(ctx))
}

func Test_Gateway_resetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("always reports success", func(t *testing.T) {
		backend := testutil.NewFakeBackend()
		// an unknown address must be indistinguishable from a known one
		backend.ResetErr = session.NewAuthError(session.CodeInvalidCredentials, "unknown email")
		gw := session.NewGateway(backend, localstore.NewMemStore(), testutil.NewLogger(t), nil)

		require.NoError(t, gw.ResetPassword(ctx, "whoever@test.cd"))
		assert.Equal(t, []string{"whoever@test.cd"}, backend.ResetCalls)
	})

	t.Run("transport failures do surface", func(t *testing.T) {
		backend := testutil.NewFakeBackend()
		backend.ResetErr = session.NewAuthError(session.CodeNetwork, "down")
		gw := session.NewGateway(backend, localstore.NewMemStore(), testutil.NewLogger(t), nil)

		err := gw.ResetPassword(ctx, "whoever@test.cd")
		require.Error(t, err)
		assert.True(t, session.IsAuthErrorCode(err, session.CodeNetwork))
	})
}

func Test_Gateway_resendVerification(t *testing.T) {
	backend := testutil.NewFakeBackend()
	gw := session.NewGateway(backend, localstore.NewMemStore(), testutil.NewLogger(t), nil)
	ctx := context.Background()

	require.NoError(t, gw.ResendVerification(ctx, " Kim@Test.CD "))
	assert.Equal(t, []string{"kim@test.cd"}, backend.ResendCalls)

	backend.ResendErr = session.NewAuthError(session.CodeThrottled, "slow down")
	err := gw.ResendVerification(ctx, "kim@test.cd")
	require.Error(t, err)
	assert.True(t, session.IsAuthErrorCode(err, session.CodeThrottled))
}
