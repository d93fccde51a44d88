package session

import (
	"time"

	"github.com/virtualcampus/campus/core"
)

// Roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

var AllRoles = []string{RoleStudent, RoleInstructor, RoleAdmin}

// Identity is the backend's durable representation of an authenticated principal.
// The ID is opaque to this layer; it is only compared and forwarded.
type Identity struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	EmailConfirmedAt *time.Time        `json:"email_confirmed_at,omitempty"`
	Metadata         map[string]string `json:"user_metadata,omitempty"`
}

func (i Identity) EmailConfirmed() bool {
	return i.EmailConfirmedAt != nil && !i.EmailConfirmedAt.IsZero()
}

// Session is a live credential pairing with an Identity. The zero value is the
// anonymous session.
type Session struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Identity     *Identity `json:"user,omitempty"`
}

func (s Session) IsAnonymous() bool {
	return s.Identity == nil
}

func (s Session) EmailConfirmed() bool {
	return s.Identity != nil && s.Identity.EmailConfirmed()
}

// Profile carries the application-level attributes associated one-to-one with an
// Identity. Profile rows are created by the backend when an identity is created;
// this layer only ever reads them.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Language  string    `json:"language,omitempty"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Profile) IsStudent() bool    { return p.Role == RoleStudent }
func (p Profile) IsInstructor() bool { return p.Role == RoleInstructor }
func (p Profile) IsAdmin() bool      { return p.Role == RoleAdmin }

func (p Profile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ProfileDraft is the display data captured at sign-up, forwarded to the backend
// as identity metadata so its trigger can create the Profile row.
type ProfileDraft struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (d ProfileDraft) Metadata(email string) map[string]string {
	return map[string]string{
		"first_name": d.FirstName,
		"last_name":  d.LastName,
		"role":       d.Role,
		"email":      email,
	}
}

// NewAccount contains the information needed to sign up.
type NewAccount struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Role            string `json:"role" validate:"required,campusrole"`
}

func (na *NewAccount) Validate() error {
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.FirstName = core.CleanString(na.FirstName)
	na.LastName = core.CleanString(na.LastName)
	na.Role = core.CleanString(na.Role, true /* lower */)
	return core.Validate.Struct(na)
}

func (na NewAccount) Draft() ProfileDraft {
	return ProfileDraft{FirstName: na.FirstName, LastName: na.LastName, Role: na.Role}
}

// State is an immutable snapshot of the Store, delivered to subscribers.
type State struct {
	Session Session
	Profile *Profile
	Loading bool
}

func (st State) Authenticated() bool {
	return !st.Loading && !st.Session.IsAnonymous()
}
