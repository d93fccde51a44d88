package echoapi

import (
	"github.com/virtualcampus/campus/core"
	"github.com/virtualcampus/campus/core/session"
)

// requests

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (prr *PasswordResetRequest) Validate() error {
	prr.Email = core.CleanString(prr.Email, true /* lower */)
	return core.Validate.Struct(prr)
}

// ResendVerificationRequest optionally overrides the pending address.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

func (rvr *ResendVerificationRequest) Validate() error {
	rvr.Email = core.CleanString(rvr.Email, true /* lower */)
	return core.Validate.Struct(rvr)
}

// responses

type SuccessResponse struct {
	Success string `json:"success"`
}

type SignUpResponse struct {
	Email    string `json:"email"`
	Redirect string `json:"redirect"`
}

type SessionStateResponse struct {
	Loading       bool             `json:"loading"`
	Authenticated bool             `json:"authenticated"`
	Email         string           `json:"email,omitempty"`
	Profile       *session.Profile `json:"profile,omitempty"`
}

type VerifyStatusResponse struct {
	State    session.VerifyState `json:"state"`
	Email    string              `json:"email,omitempty"`
	SignupOK bool                `json:"signup_ok"`
	Redirect string              `json:"redirect,omitempty"`
}
