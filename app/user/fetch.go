package user

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserFetch returns the authenticated user
func UserFetch(c *gin.Context, _ *internal.Deps) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
