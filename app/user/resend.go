package user

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/repo"
	"cyberslate/esports-api/validators"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type resendBody struct {
	Email string `json:"email" binding:"required,mail"`
}

// UserResendCode replaces the pending verification code of an unverified
// account and mails the new one
func UserResendCode(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()

	var data resendBody
	if !validators.Bind(c, &data) {
		return
	}

	// Whatever happens next the old code must stop working
	if err := d.Verify.Invalidate(ctx, data.Email); err != nil {
		apperr.Fail(c, "Failed to invalidate previous code", err)
		return
	}

	u, err := d.Users.FindInactiveByEmail(ctx, data.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			apperr.Respond(c, apperr.NotFound("User with this email was not found or is already verified"))
			return
		}

		apperr.Fail(c, "Failed to fetch user", err)
		return
	}

	code, err := d.Verify.Reissue(ctx, u.ID, u.Email)
	if err != nil {
		apperr.Fail(c, "Failed to issue verification code", err)
		return
	}

	if err := d.Mailer.SendVerificationCode(ctx, u.Email, code); err != nil {
		apperr.Fail(c, "Failed to send verification email", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Verification code sent to %s", u.Email),
	})
}
