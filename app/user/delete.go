package user

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/events"
	"cyberslate/esports-api/internal/repo"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserDelete removes an account. Only admins get here, the route is guarded
// by RequireRole.
func UserDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Respond(c, apperr.Validation("id must be a positive integer"))
		return
	}

	if err := d.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			apperr.Respond(c, apperr.NotFound("User not found"))
			return
		}

		apperr.Fail(c, "Failed to delete user", err)
		return
	}

	events.Emit(ctx, d.Events, events.Event{Type: events.UserDeleted, Subject: id})

	zap.L().Info("User deleted", zap.Int64("userID", id), zap.Any("by", c.MustGet("userID")), zap.String("requestID", requestID))

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted",
	})
}
