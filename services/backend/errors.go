package backendsvc

import (
	"encoding/json"
	"net/http"

	"github.com/virtualcampus/campus/core/session"
)

// apiErrorPayload covers the error shapes the auth and records endpoints
// return; GoTrue alone uses several.
type apiErrorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (p apiErrorPayload) text() string {
	for _, s := range []string{p.ErrorDescription, p.Msg, p.Message, p.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// decodeAPIError maps a non-2xx backend response onto an AuthError.
func decodeAPIError(resp *http.Response) error {
	var payload apiErrorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	msg := payload.text()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	var code string
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		code = session.CodeThrottled
		msg = "too many attempts, please retry in a moment"
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		code = session.CodeInvalidCredentials
	default:
		code = session.CodeBackend
	}
	return session.NewAuthError(code, msg)
}
