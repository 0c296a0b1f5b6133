package user

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/events"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/validators"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Username string `json:"username" binding:"required,min=3,max=20"`
	Email    string `json:"email" binding:"required,mail"`
	Password string `json:"password" binding:"required,password"`
}

var errUserExists = apperr.Conflict("User with this email or username already exists")

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	var data registerBody
	if !validators.Bind(c, &data) {
		return
	}

	data.Username = strings.TrimSpace(data.Username)

	taken, err := d.Users.Taken(ctx, data.Email, data.Username)
	if err != nil {
		apperr.Fail(c, "Failed to check if user is registered", err)
		return
	}

	if taken {
		apperr.Respond(c, errUserExists)
		return
	}

	hash, err := d.Argon.Hash(data.Password)
	if err != nil {
		apperr.Fail(c, "Failed to hash password", err)
		return
	}

	u := &model.User{
		Username:     data.Username,
		Email:        data.Email,
		Role:         model.RoleViewer,
		PasswordHash: hash,
	}

	if err := d.Users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent registration
		if taken, _ := d.Users.Taken(ctx, data.Email, data.Username); taken {
			apperr.Respond(c, errUserExists)
			return
		}

		apperr.Fail(c, "Failed to create user", err)
		return
	}

	code, err := d.Verify.Issue(ctx, u.ID, u.Email)
	if err != nil {
		apperr.Fail(c, "Failed to issue verification code", err)
		return
	}

	if err := d.Mailer.SendVerificationCode(ctx, u.Email, code); err != nil {
		apperr.Fail(c, "Failed to send verification email", err)
		return
	}

	events.Emit(ctx, d.Events, events.Event{
		Type:    events.UserRegistered,
		Subject: u.ID,
		Data:    map[string]any{"username": u.Username},
	})

	zap.L().Debug("User registered", zap.Int64("userID", u.ID), zap.String("requestID", requestID))

	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Verification code sent to %s", u.Email),
	})
}
