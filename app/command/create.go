// Package command holds the team endpoints
package command

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/events"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/pkg/middleware"
	"cyberslate/esports-api/validators"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type createBody struct {
	Name     string `json:"name" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,password"`
}

var (
	errAlreadyInTeam = apperr.BadRequest("You are already in a team")
	errNameTaken     = apperr.Conflict("Team with this name already exists")
)

// CommandCreate creates a team with the caller as its creator and first member
func CommandCreate(c *gin.Context, d *internal.Deps) {
	ctx := c.Request.Context()
	u := middleware.CurrentUser(c)

	if u.CommandID != nil {
		apperr.Respond(c, errAlreadyInTeam)
		return
	}

	var data createBody
	if !validators.Bind(c, &data) {
		return
	}

	data.Name = strings.TrimSpace(data.Name)

	taken, err := d.Commands.NameTaken(ctx, data.Name)
	if err != nil {
		apperr.Fail(c, "Failed to check team name", err)
		return
	}

	if taken {
		apperr.Respond(c, errNameTaken)
		return
	}

	hash, err := d.Argon.Hash(data.Password)
	if err != nil {
		apperr.Fail(c, "Failed to hash team password", err)
		return
	}

	cmd := &model.Command{
		Name:         data.Name,
		PasswordHash: hash,
		Status:       model.CommandActive,
	}

	if err := d.Commands.Create(ctx, cmd, u.ID); err != nil {
		if taken, _ := d.Commands.NameTaken(ctx, data.Name); taken {
			apperr.Respond(c, errNameTaken)
			return
		}

		apperr.Fail(c, "Failed to create team", err)
		return
	}

	created, err := d.Commands.FindActive(ctx, cmd.ID)
	if err != nil {
		apperr.Fail(c, "Failed to fetch created team", err)
		return
	}

	events.Emit(ctx, d.Events, events.Event{
		Type:    events.CommandCreated,
		Subject: cmd.ID,
		Data:    map[string]any{"name": cmd.Name, "creator": u.ID},
	})

	c.JSON(http.StatusCreated, created)
}
