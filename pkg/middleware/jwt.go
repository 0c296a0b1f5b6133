package middleware

import (
	"context"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/pkg/token"
	"errors"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// AccessValidator resolves a bearer access token to its user
type AccessValidator interface {
	CurrentUser(ctx context.Context, raw string) (*model.User, error)
}

// NewJWTMiddleware rejects requests without a valid bearer access token and
// stores the resolved user as "user" and its id as "userID"
func NewJWTMiddleware(v AccessValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			apperr.Respond(c, apperr.Unauthorized("Not authenticated"))
			return
		}

		user, err := v.CurrentUser(c.Request.Context(), raw)
		if err != nil {
			apperr.Respond(c, TokenError(err))
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}

// TokenError turns a validator error into the 401 clients see. Anything the
// validator didn't reject the token for is an internal error.
func TokenError(err error) *apperr.Error {
	switch {
	case errors.Is(err, token.ErrTokenRevoked):
		return apperr.Unauthorized("token has been revoked")
	case errors.Is(err, token.ErrTokenExpired):
		return apperr.Unauthorized("Token expired")
	case errors.Is(err, token.ErrUnauthorized):
		return apperr.Unauthorized("Could not validate credentials")
	}

	return apperr.Internal(err)
}

// RequireRole lets the request through only if the authenticated user has
// one of roles. It must run after NewJWTMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, CurrentUser(c).Role) {
			apperr.Respond(c, apperr.Forbidden("You don't have permission to do this"))
			return
		}

		c.Next()
	}
}

// CurrentUser returns the user stored by NewJWTMiddleware
func CurrentUser(c *gin.Context) *model.User {
	return c.MustGet("user").(*model.User)
}

func bearer(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	raw = strings.TrimSpace(raw)

	return raw, raw != ""
}
