package jwttoken

import (
	id "caseflow/pkg/domain"
)

// JWTServiceAdapter satisfies middleware.JWTValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (id.Identity, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return id.Identity{}, err
	}
	return claims.Identity()
}
