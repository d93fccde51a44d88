package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualcampus/campus/core/session"
	testutil "github.com/virtualcampus/campus/tests"
)

type httpErr struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func Test_auth_login(t *testing.T) {
	f := setup(t)
	f.backend.AddAccount(t, "kim@test.cd", "LePassw0rd!", "Kim", "Jones", session.RoleStudent, true)

	tests := []httpTest{
		{
			name:     "ok",
			body:     []byte(`{"email":"kim@test.cd","password":"LePassw0rd!"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"redirect":"/dashboard"}`),
		},
		{
			name:     "email is normalized",
			body:     []byte(`{"email":" Kim@Test.CD ","password":"LePassw0rd!"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"redirect":"/dashboard"}`),
		},
		{
			name:     "login redirect target is honored",
			path:     "/auth/login?redirect=/dashboard/courses",
			body:     []byte(`{"email":"kim@test.cd","password":"LePassw0rd!"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"redirect":"/dashboard/courses"}`),
		},
		{
			name:     "offsite redirect target is ignored",
			path:     "/auth/login?redirect=https://evil.test",
			body:     []byte(`{"email":"kim@test.cd","password":"LePassw0rd!"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"redirect":"/dashboard"}`),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email":"kim@test.cd","password":"nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid login credentials", Code: "invalid_credentials"}),
		},
		{
			name:     "unknown account",
			body:     []byte(`{"email":"who@test.cd","password":"nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid login credentials", Code: "invalid_credentials"}),
		},
		{
			name:     "missing password",
			body:     []byte(`{"email":"kim@test.cd"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password":"this field is required"}`),
		},
		{
			name:     "bad email",
			body:     []byte(`{"email":"nope","password":"LePassw0rd!"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email":"email must be a valid email address"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = "/auth/login"
			}
			req, rec := newRequest(http.MethodPost, path, tt.body)
			f.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_auth_signup(t *testing.T) {
	f := setup(t)
	f.backend.AddAccount(t, "taken@test.cd", "Other0ne!", "Old", "Hand", session.RoleInstructor, true)

	body := func(email, pwd string) []byte {
		return marchallObj(t, session.NewAccount{
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			FirstName:       "Kim",
			LastName:        "Jones",
			Role:            session.RoleStudent,
		})
	}

	tests := []httpTest{
		{
			name:     "ok",
			body:     body("kim@test.cd", "LePassw0rd!"),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"email":"kim@test.cd","redirect":"/auth/verify-email"}`),
		},
		{
			name:     "duplicate email",
			body:     body("taken@test.cd", "LePassw0rd!"),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a user with this email already exists", Code: "duplicate_account"}),
		},
		{
			name:     "weak password",
			body:     body("lee@test.cd", "lepassword"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password":"password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}`),
		},
		{
			name:     "missing names",
			body:     []byte(`{"email":"lee@test.cd","password":"LePassw0rd!","password_confirm":"LePassw0rd!","role":"student"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"first_name":"this field is required","last_name":"this field is required"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/auth/signup", tt.body)
			f.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the successful sign-up left the pending verification record behind
	email, ok := f.local.Get("pendingVerificationEmail")
	require.True(t, ok, "pending verification record missing")
	assert.Equal(t, "kim@test.cd", email)
}

func Test_auth_logout(t *testing.T) {
	f := setup(t)
	f.signIn(t, "kim@test.cd")

	req, rec := newRequest(http.MethodPost, "/auth/logout")
	f.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
	}
	assert.Eventually(t, func() bool { return !f.store.Snapshot().Authenticated() }, waitFor, tick)

	// logging out while anonymous is fine too
	req, rec = newRequest(http.MethodPost, "/auth/logout")
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func Test_auth_passwordReset(t *testing.T) {
	f := setup(t)
	// an unknown address must get the same answer as a known one
	f.backend.ResetErr = session.NewAuthError(session.CodeInvalidCredentials, "unknown email")

	tt := httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, map[string]string{
			"success": "If the email address supplied is associated with an account on this system, " +
				"an email will arrive in your inbox shortly with instructions to reset your password.",
		}),
	}
	req, rec := newRequest(http.MethodPost, "/auth/password-reset", []byte(`{"email":"who@test.cd"}`))
	f.srv.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
	assert.Equal(t, []string{"who@test.cd"}, f.backend.ResetCalls)
}

func Test_auth_resendVerification(t *testing.T) {
	f := setup(t)

	tests := []httpTest{
		{
			name:     "explicit email",
			body:     []byte(`{"email":"kim@test.cd"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":"verification email sent"}`),
		},
		{
			name:     "no pending email",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "no email address awaiting verification"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/auth/resend-verification", tt.body)
			f.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_auth_verifyEmail(t *testing.T) {
	t.Run("awaiting the link", func(t *testing.T) {
		f := setup(t)
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"state":"awaiting_link","signup_ok":false}`),
		}
		req, rec := newRequest(http.MethodGet, "/auth/verify-email")
		f.srv.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("deep link confirms", func(t *testing.T) {
		f := setup(t)
		ident := f.backend.AddAccount(t, "kim@test.cd", "LePassw0rd!", "Kim", "Jones", session.RoleStudent, true)
		f.backend.Tokens["tok"] = testutil.MakeSession(ident)

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"state":"confirmed","email":"kim@test.cd","signup_ok":false,"redirect":"/dashboard"}`),
		}
		req, rec := newRequest(http.MethodGet, "/auth/verify-email?access_token=tok&refresh_token=rt&type=signup")
		f.srv.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
		assert.Equal(t, session.StateConfirmed, f.verifier.State())
	})

	t.Run("mangled deep link", func(t *testing.T) {
		f := setup(t)
		req, rec := newRequest(http.MethodGet, "/auth/verify-email?access_token=tok&type=signup")
		f.srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, session.StateAwaitingLink, f.verifier.State())
	})

	t.Run("confirmed in another tab", func(t *testing.T) {
		f := setup(t)
		ident := f.backend.AddAccount(t, "kim@test.cd", "LePassw0rd!", "Kim", "Jones", session.RoleStudent, true)
		f.backend.Session = testutil.MakeSession(ident)

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: []byte(`{"state":"confirmed","signup_ok":false,"redirect":"/dashboard"}`),
		}
		req, rec := newRequest(http.MethodGet, "/auth/verify-email")
		f.srv.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_auth_session(t *testing.T) {
	f := setup(t)

	req, rec := newRequest(http.MethodGet, "/auth/session")
	f.srv.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`{"loading":false,"authenticated":false}`),
	}, rec)

	f.signIn(t, "kim@test.cd")
	req, rec = newRequest(http.MethodGet, "/auth/session")
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
	assert.Contains(t, rec.Body.String(), `"email":"kim@test.cd"`)
}
