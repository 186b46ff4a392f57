package middleware

import (
	"context"
	"net/http"

	"takeint/internal/models"
	"takeint/internal/utils"
)

type contextKey string

const requesterKey contextKey = "requester"

// Auth validates the bearer token and attaches the requester to the request
// context. Requests without a valid token are rejected with 401.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := utils.VerifyToken(r, secret)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, err.Error())
				return
			}
			requester, err := utils.RequesterFromClaims(claims)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
		})
	}
}

// WithRequester returns a context carrying the requester.
func WithRequester(ctx context.Context, requester *models.Requester) context.Context {
	return context.WithValue(ctx, requesterKey, requester)
}

// RequesterFrom returns the authenticated requester, or nil outside the Auth
// middleware.
func RequesterFrom(ctx context.Context) *models.Requester {
	requester, _ := ctx.Value(requesterKey).(*models.Requester)
	return requester
}
