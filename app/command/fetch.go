package command

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/repo"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

var errTeamNotFound = apperr.NotFound("Team not found")

// teamID reads the :id path parameter, answering 422 when it is not a
// positive integer
func teamID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.Respond(c, apperr.Validation("id must be a positive integer"))
		return 0, false
	}

	return id, true
}

func CommandFetch(c *gin.Context, d *internal.Deps) {
	id, ok := teamID(c)
	if !ok {
		return
	}

	cmd, err := d.Commands.FindActive(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			apperr.Respond(c, errTeamNotFound)
			return
		}

		apperr.Fail(c, "Failed to fetch team", err)
		return
	}

	c.JSON(http.StatusOK, cmd)
}
