package session

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Client-local state keys. All three are written at sign-up and cleared together
// whenever verification finalizes or sign-up is restarted.
const (
	pendingEmailKey  = "pendingVerificationEmail"
	pendingSignupKey = "pendingSignupSuccess"
	pendingDraftKey  = "pendingUserData"
)

// LocalStore is keyed, string-valued client-local state that survives restarts.
// The storage/local package provides the file-backed implementation.
type LocalStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
}

// PendingVerification tracks an email address awaiting confirmation after
// sign-up, plus the signed-up user's draft display data.
type PendingVerification struct {
	Email    string
	Draft    ProfileDraft
	SignupOK bool
}

func savePendingVerification(ls LocalStore, email string, draft ProfileDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "marshalling profile draft")
	}
	if err := ls.Set(pendingEmailKey, email); err != nil {
		return errors.Wrap(err, "saving pending email")
	}
	if err := ls.Set(pendingSignupKey, "true"); err != nil {
		return errors.Wrap(err, "saving signup flag")
	}
	return errors.Wrap(ls.Set(pendingDraftKey, string(data)), "saving profile draft")
}

func loadPendingVerification(ls LocalStore) PendingVerification {
	var pv PendingVerification
	pv.Email, _ = ls.Get(pendingEmailKey)
	if flag, ok := ls.Get(pendingSignupKey); ok {
		pv.SignupOK = flag == "true"
	}
	if data, ok := ls.Get(pendingDraftKey); ok {
		// a corrupt draft only degrades the display, never the flow
		_ = json.Unmarshal([]byte(data), &pv.Draft)
	}
	return pv
}

func clearPendingVerification(ls LocalStore) error {
	return errors.Wrap(
		ls.Delete(pendingEmailKey, pendingSignupKey, pendingDraftKey),
		"clearing pending verification state",
	)
}
