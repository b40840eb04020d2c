package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/vadimbarashkov/linklytics/internal/models"
	"github.com/vadimbarashkov/linklytics/pkg/response"
)

type contextKey string

const principalKey contextKey = "principal"

type tokenClaims struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// authenticate verifies the bearer token issued by the external identity
// surface and injects the resulting principal into the request context.
func authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			claims := new(tokenClaims)
			_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || claims.Subject == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.UnauthorizedResponse)
				return
			}

			principal := models.Principal{
				UserID: claims.Subject,
				Role:   claims.Role,
				Name:   claims.Name,
				Email:  claims.Email,
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// provision mirrors the identity surface's account record into the local
// users table so ownership foreign keys resolve. Tokens without profile
// claims skip it; the row may already exist, which is fine.
func provision(users UserProvisioner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := principalFrom(r.Context())

			if p.Email != "" {
				if err := users.Ensure(r.Context(), p.UserID, p.Name, p.Email, p.Role); err != nil {
					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, response.ServerErrorResponse)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// principalFrom extracts the authenticated principal. The zero value is
// returned only if the middleware didn't run, which is a routing mistake.
func principalFrom(ctx context.Context) models.Principal {
	principal, _ := ctx.Value(principalKey).(models.Principal)
	return principal
}
