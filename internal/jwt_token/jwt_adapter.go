package jwttoken

import (
	id "linkage/pkg/domain"
	authmw "linkage/pkg/platform/middleware/auth"
	platformstrings "linkage/pkg/platform/strings"
)

// ToMiddlewareClaims maps token claims to the middleware's view with roles
// trimmed, lowercased and deduplicated.
func ToMiddlewareClaims(claims *Claims) *authmw.JWTClaims {
	return &authmw.JWTClaims{
		ActorID: id.ActorID(claims.Subject),
		Roles:   platformstrings.DedupeAndTrimLower(claims.Roles),
	}
}

// JWTServiceAdapter exposes JWTService through the middleware's validator port.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
