package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/virtualcampus/campus/apps/web/echo"
)

func Test_dashboard_home(t *testing.T) {
	f := setup(t)
	f.signIn(t, "kim@test.cd")

	// wait for the profile so the display name is rendered
	assert.Eventually(t, func() bool { return f.store.Profile() != nil }, waitFor, tick)

	req, rec := newRequest(http.MethodGet, "/dashboard")
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"kim@test.cd"`)
	assert.Contains(t, rec.Body.String(), `"name":"Kim Jones"`)
	assert.Contains(t, rec.Body.String(), `"role":"student"`)
}

func Test_dashboard_listings(t *testing.T) {
	f := setup(t)
	f.signIn(t, "kim@test.cd")

	tests := []httpTest{
		{
			name:     "courses",
			path:     "/dashboard/courses",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []echoapi.Course{{ID: "c1", Title: "Intro to Go", InstructorID: "i1"}}),
		},
		{
			name:     "assignments degrade to an empty listing",
			path:     "/dashboard/assignments",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "discussions",
			path:     "/dashboard/discussions",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "resources",
			path:     "/dashboard/resources",
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			f.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
