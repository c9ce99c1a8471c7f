// Package auth provides shared access-token validation for services that
// verify tokens issued by the user service but never mint their own.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ozanyurtsever/shopcore/pkg/middleware"
)

type accessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenValidator returns a validator for HS256 access tokens signed
// with the shared secret. The result plugs directly into middleware.Auth.
func NewTokenValidator(secret string) middleware.TokenValidator {
	key := []byte(secret)
	return func(tokenString string) (*middleware.Claims, error) {
		token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			return nil, fmt.Errorf("parse access token: %w", err)
		}

		claims, ok := token.Claims.(*accessClaims)
		if !ok || !token.Valid {
			return nil, fmt.Errorf("invalid access token claims")
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}
}
