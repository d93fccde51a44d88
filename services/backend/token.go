package backendsvc

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// accessClaims is the subset of the backend's JWT claims this layer reads.
// Tokens are minted and verified by the backend; they are only decoded here, so
// no signature check is performed.
type accessClaims struct {
	jwt.StandardClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func decodeAccessToken(token string) (*accessClaims, error) {
	claims := new(accessClaims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "parsing access token")
	}
	return claims, nil
}
