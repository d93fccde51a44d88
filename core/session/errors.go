package session

import (
	"fmt"

	"github.com/pkg/errors"
)

// AuthError codes. Every failure of an identity-mutating operation is normalized
// into one of these before it leaves the Gateway.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeDuplicateAccount   = "duplicate_account"
	CodeThrottled          = "throttled"
	CodeNetwork            = "network"
	CodeBackend            = "backend"
)

var (
	ErrNotSignedIn    = errors.New("no signed-in session")
	ErrNoPendingEmail = errors.New("no email address awaiting verification")
	ErrBackendClosed  = errors.New("backend client is closed")
)

// AuthError is the uniform failure shape of all Gateway operations. It is always
// safe to show Message to the user.
type AuthError struct {
	Code    string
	Message string
	cause   error
}

func NewAuthError(code, message string, cause ...error) *AuthError {
	err := &AuthError{Code: code, Message: message}
	if len(cause) > 0 {
		err.cause = cause[0]
	}
	return err
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Cause exposes the wrapped error to pkg/errors.Cause chains.
func (e *AuthError) Cause() error { return e.cause }

func newDuplicateAccountError() *AuthError {
	return NewAuthError(CodeDuplicateAccount, "a user with this email already exists")
}

// AsAuthError returns the *AuthError in err's cause chain, or wraps err into the
// generic backend code so callers always get the uniform shape.
func AsAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	if aErr, ok := errors.Cause(err).(*AuthError); ok {
		return aErr
	}
	return NewAuthError(CodeBackend, "the request could not be completed, please try again", err)
}

func IsAuthErrorCode(err error, code string) bool {
	aErr, ok := errors.Cause(err).(*AuthError)
	return ok && aErr.Code == code
}

func IsDuplicateAccount(err error) bool {
	return IsAuthErrorCode(err, CodeDuplicateAccount)
}
