// Package auth validates the bearer tokens the external identity provider
// issues. The portal consumes {actorId, role} claims; it never signs new
// tokens itself (session issuance is the provider's job).
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/brookside/clinic-portal/internal/model"
)

// Claims is the token payload contract shared with the identity provider.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenValidator struct {
	secret []byte
}

func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// Validate parses and verifies a token and returns the actor it identifies.
// Any defect — bad signature, expiry, unknown role, malformed subject —
// yields an error and therefore an unauthenticated request.
func (v *TokenValidator) Validate(tokenString string) (model.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return model.Actor{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return model.Actor{}, fmt.Errorf("invalid token")
	}

	actorID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, fmt.Errorf("invalid subject claim: %w", err)
	}

	role := model.Role(claims.Role)
	if !role.Valid() {
		return model.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return model.Actor{ID: actorID, Role: role}, nil
}
