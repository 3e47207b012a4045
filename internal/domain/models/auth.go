package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims represents the JWT claims the auth provider issues.
type UserClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
