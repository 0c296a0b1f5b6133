package user

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/repo"
	"cyberslate/esports-api/validators"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// loginForm follows the OAuth2 password flow, username carries the email
type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

var errBadCredentials = apperr.Unauthorized("Incorrect email or password, or the user is not active")

func UserLogin(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()

	var data loginForm
	if !validators.Bind(c, &data) {
		return
	}

	u, err := d.Users.FindActiveByEmail(ctx, data.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			apperr.Respond(c, errBadCredentials)
			return
		}

		apperr.Fail(c, "Failed to fetch user", err)
		return
	}

	if !d.Argon.Verify(data.Password, u.PasswordHash) {
		apperr.Respond(c, errBadCredentials)
		return
	}

	pair, err := d.Tokens.IssuePair(u)
	if err != nil {
		apperr.Fail(c, "Failed to issue tokens", err)
		return
	}

	c.JSON(http.StatusOK, pair)
}
