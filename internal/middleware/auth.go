// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/auth"
	"dndbuilder/internal/logger"
	"dndbuilder/internal/models"
	"dndbuilder/internal/respond"
)

// TokenParser validates bearer tokens. *auth.Service satisfies it.
type TokenParser interface {
	ParseToken(ctx context.Context, raw string) (*auth.Claims, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer"
// token and stores the verified claims in the request context. Downstream
// handlers read them with auth.ClaimsFrom.
func BearerAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				respond.Error(w, r, apperr.Unauthorized("Missing bearer token"))
				return
			}
			claims, err := parser.ParseToken(r.Context(), raw)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("user_id", claims.Subject)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns 403 if the authenticated user is not an admin.
// Must be applied after BearerAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := auth.ClaimsFrom(r.Context())
		if c == nil || c.Role != models.RoleAdmin {
			respond.Error(w, r, apperr.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
