package metricsvc

import (
	"net/http/httptest"
	"strings"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func Test_Prometheus_counters(t *testing.T) {
	m := NewPrometheus()

	m.AuthOperation("sign_in")
	m.AuthOperation("sign_in")
	m.AuthError("invalid_credentials")
	m.AuthEvent("SIGNED_IN")
	m.ProfileFetchFailure()
	m.VerificationFinalized()

	if got := promtest.ToFloat64(m.authOps.WithLabelValues("sign_in")); got != 2 {
		t.Errorf("auth_operations_total{operation=sign_in} = %v; want 2", got)
	}
	if got := promtest.ToFloat64(m.authErrors.WithLabelValues("invalid_credentials")); got != 1 {
		t.Errorf("auth_errors_total{code=invalid_credentials} = %v; want 1", got)
	}
	if got := promtest.ToFloat64(m.authEvents.WithLabelValues("SIGNED_IN")); got != 1 {
		t.Errorf("auth_events_total{type=SIGNED_IN} = %v; want 1", got)
	}
	if got := promtest.ToFloat64(m.profileFetchFailures); got != 1 {
		t.Errorf("profile_fetch_failures_total = %v; want 1", got)
	}
	if got := promtest.ToFloat64(m.verificationsFinalized); got != 1 {
		t.Errorf("verifications_finalized_total = %v; want 1", got)
	}
}

func Test_Prometheus_handler(t *testing.T) {
	m := NewPrometheus()
	m.VerificationFinalized()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("code = %v; want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "campus_verifications_finalized_total 1") {
		t.Errorf("scrape output missing counter:\n%s", body)
	}
}
