package user

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserBecomePlayer upgrades a viewer so they can create and join teams.
// Tokens keep the old role claim until they are reissued; the role itself
// is always read from the database.
func UserBecomePlayer(c *gin.Context, d *internal.Deps) {
	u := middleware.CurrentUser(c)

	if u.CanPlay() {
		apperr.Respond(c, apperr.BadRequest("You can already take part in matches and create teams"))
		return
	}

	if err := d.Users.SetRole(c.Request.Context(), u.ID, model.RolePlayer); err != nil {
		apperr.Fail(c, "Failed to update user role", err)
		return
	}
	u.Role = model.RolePlayer

	c.JSON(http.StatusOK, u)
}
