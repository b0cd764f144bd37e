package types

import "github.com/golang-jwt/jwt/v4"

// Claims carried by access tokens issued by the hosted auth provider.
// Role here is the provider's session role; staff permissions come from profiles.role.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}
