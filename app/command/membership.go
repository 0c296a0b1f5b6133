package command

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/repo"
	"cyberslate/esports-api/pkg/middleware"
	"cyberslate/esports-api/validators"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type joinBody struct {
	Password string `json:"password" binding:"required"`
}

// CommandJoin adds the caller to a team after checking the team password
func CommandJoin(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()
	u := middleware.CurrentUser(c)

	id, ok := teamID(c)
	if !ok {
		return
	}

	if u.CommandID != nil {
		apperr.Respond(c, errAlreadyInTeam)
		return
	}

	var data joinBody
	if !validators.Bind(c, &data) {
		return
	}

	cmd, err := d.Commands.FindActive(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			apperr.Respond(c, errTeamNotFound)
			return
		}

		apperr.Fail(c, "Failed to fetch team", err)
		return
	}

	if !d.Argon.Verify(data.Password, cmd.PasswordHash) {
		apperr.Respond(c, apperr.Forbidden("Wrong team password"))
		return
	}

	if err := d.Commands.Join(ctx, id, u.ID); err != nil {
		switch {
		case errors.Is(err, repo.ErrCommandFilled):
			apperr.Respond(c, apperr.Conflict("Team is full"))
		case errors.Is(err, repo.ErrNotFound):
			apperr.Respond(c, errTeamNotFound)
		default:
			apperr.Fail(c, "Failed to join team", err)
		}
		return
	}

	joined, err := d.Commands.FindActive(ctx, id)
	if err != nil {
		apperr.Fail(c, "Failed to fetch team", err)
		return
	}

	c.JSON(http.StatusOK, joined)
}

// CommandLeave detaches the caller from their team. Creators can't leave,
// they delete the team instead.
func CommandLeave(c *gin.Context, d *internal.Deps) {
	u := middleware.CurrentUser(c)

	if u.CommandID == nil {
		apperr.Respond(c, apperr.BadRequest("You are not in a team"))
		return
	}

	if u.IsTeamCreator {
		apperr.Respond(c, apperr.BadRequest("Team creator can't leave the team, delete it instead"))
		return
	}

	if err := d.Commands.Leave(c.Request.Context(), *u.CommandID, u.ID); err != nil {
		apperr.Fail(c, "Failed to leave team", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "You left the team",
	})
}
