package jwttoken

import (
	authmw "minbar/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.JWTClaims {
	mw := &authmw.JWTClaims{
		Subject: claims.Subject,
		Role:    claims.Role,
		Name:    claims.Name,
	}
	if claims.IssuedAt != nil {
		mw.IssuedAt = claims.IssuedAt.Time
	}
	return mw
}

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
