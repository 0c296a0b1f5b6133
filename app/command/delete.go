package command

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/events"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/internal/repo"
	"cyberslate/esports-api/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CommandDelete removes a team. Admins may delete any team, everyone else
// only the team they created.
func CommandDelete(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()
	u := middleware.CurrentUser(c)

	id, ok := teamID(c)
	if !ok {
		return
	}

	owner := u.IsTeamCreator && u.CommandID != nil && *u.CommandID == id
	if u.Role != model.RoleAdmin && !owner {
		apperr.Respond(c, apperr.Forbidden("No access to this team"))
		return
	}

	if err := d.Commands.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			apperr.Respond(c, errTeamNotFound)
			return
		}

		apperr.Fail(c, "Failed to delete team", err)
		return
	}

	events.Emit(ctx, d.Events, events.Event{Type: events.CommandDeleted, Subject: id})

	c.JSON(http.StatusOK, gin.H{
		"message": "Team deleted",
	})
}
