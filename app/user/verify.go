package user

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/events"
	"cyberslate/esports-api/internal/repo"
	"cyberslate/esports-api/validators"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type verifyBody struct {
	Code string `json:"verify_code" binding:"required,len=8,digits"`
}

// UserVerify redeems a verification code. The user is activated before the
// code is consumed, so a failure in between can be retried with the same code.
func UserVerify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	var data verifyBody
	if !validators.Bind(c, &data) {
		return
	}

	rec, err := d.Verify.Lookup(ctx, data.Code)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindVerification {
			apperr.Respond(c, err)
			return
		}

		apperr.Fail(c, "Failed to read verification code", err)
		return
	}

	u, err := d.Users.FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			apperr.Respond(c, apperr.NotFound("User not found"))
			return
		}

		apperr.Fail(c, "Failed to fetch user", err)
		return
	}

	if err := d.Users.Activate(ctx, u.ID); err != nil {
		apperr.Fail(c, "Failed to activate user", err)
		return
	}
	u.IsActive = true

	if err := d.Verify.Consume(ctx, rec); err != nil {
		// The user is active already, a leftover code only expires later
		zap.L().Warn("Failed to consume verification code", zap.Error(err), zap.String("requestID", requestID))
	}

	pair, err := d.Tokens.IssuePair(u)
	if err != nil {
		apperr.Fail(c, "Failed to issue tokens", err)
		return
	}

	events.Emit(ctx, d.Events, events.Event{Type: events.UserVerified, Subject: u.ID})

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Welcome, %s!", u.Username),
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
	})
}
