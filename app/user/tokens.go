package user

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/pkg/middleware"
	"cyberslate/esports-api/validators"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type refreshBody struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type revokeBody struct {
	RefreshTokens []refreshBody `json:"refresh_tokens" binding:"required,min=1,dive"`
}

// respondTokenError maps validator errors onto 401s, anything else is a
// store failure
func respondTokenError(c *gin.Context, err error) {
	e := middleware.TokenError(err)
	if e.Kind == apperr.KindInternal {
		apperr.Fail(c, "Failed to validate refresh token", err)
		return
	}

	apperr.Respond(c, e)
}

// UserAccessToken trades a refresh token for a new access token. The
// response body is the bare token string.
func UserAccessToken(c *gin.Context, d *internal.Deps) {
	var data refreshBody
	if !validators.Bind(c, &data) {
		return
	}

	u, _, err := d.Validator.ValidateRefresh(c.Request.Context(), data.RefreshToken)
	if err != nil {
		respondTokenError(c, err)
		return
	}

	access, err := d.Tokens.IssueAccess(u)
	if err != nil {
		apperr.Fail(c, "Failed to issue access token", err)
		return
	}

	c.JSON(http.StatusOK, access)
}

// UserRefreshTokens rotates a refresh token. The presented token is revoked
// for the rest of its lifetime, so each refresh token works only once.
func UserRefreshTokens(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()

	var data refreshBody
	if !validators.Bind(c, &data) {
		return
	}

	u, claims, err := d.Validator.ValidateRefresh(ctx, data.RefreshToken)
	if err != nil {
		respondTokenError(c, err)
		return
	}

	refresh, err := d.Tokens.IssueRefresh(u)
	if err != nil {
		apperr.Fail(c, "Failed to issue refresh token", err)
		return
	}

	if err := d.Revoked.Revoke(ctx, data.RefreshToken, claims.Remaining(d.Tokens.Now())); err != nil {
		apperr.Fail(c, "Failed to revoke rotated refresh token", err)
		return
	}

	c.JSON(http.StatusOK, refresh)
}

// UserRevokeTokens logs out by revoking every listed refresh token. The
// tokens are not validated first, revoking garbage is harmless.
func UserRevokeTokens(c *gin.Context, d *internal.Deps) {
	var data revokeBody
	if !validators.Bind(c, &data) {
		return
	}

	tokens := make([]string, len(data.RefreshTokens))
	for i, t := range data.RefreshTokens {
		tokens[i] = t.RefreshToken
	}

	n, err := d.Revoked.RevokeAll(c.Request.Context(), tokens, d.Tokens.RefreshTTL())
	if err != nil {
		apperr.Fail(c, "Failed to revoke refresh tokens", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail": fmt.Sprintf("Tokens revoked (%d of %d)", n, len(tokens)),
	})
}
