package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator validates access tokens issued by the external auth service.
// The engine never issues tokens itself.
type Authenticator interface {
	ValidateAccessToken(token string) (*jwt.Token, error)
	Subject(token *jwt.Token) (string, error)
}
