package utils

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"takeint/internal/models"
)

var (
	ErrMissingAuthHeader = errors.New("missing or malformed Authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidClaims     = errors.New("invalid token claims")
)

// VerifyToken fetches the Authorization header, validates the JWT,
// and returns the claims if everything is valid.
func VerifyToken(r *http.Request, secret string) (jwt.MapClaims, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return nil, ErrMissingAuthHeader
	}
	tokenStr := strings.TrimPrefix(authz, "Bearer ")

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// RequesterFromClaims builds the authenticated requester from token claims.
// The "sub" claim carries the numeric user ID; JWT numbers decode as float64.
func RequesterFromClaims(claims jwt.MapClaims) (*models.Requester, error) {
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, ErrInvalidClaims
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, ErrInvalidClaims
	}
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleCandidate
	}

	return &models.Requester{
		UserID: uint(sub),
		Email:  email,
		Name:   name,
		Role:   role,
	}, nil
}
