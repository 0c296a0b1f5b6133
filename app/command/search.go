package command

import (
	"cyberslate/esports-api/internal"
	"cyberslate/esports-api/internal/apperr"
	"cyberslate/esports-api/internal/model"
	"cyberslate/esports-api/internal/repo"
	"cyberslate/esports-api/validators"
	"net/http"

	"github.com/gin-gonic/gin"
)

type searchQuery struct {
	Name     string `form:"search_name" binding:"max=50"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive"`
	IsFilled *bool  `form:"is_filled"`
	LastID   int64  `form:"last_id" binding:"omitempty,min=1"`
}

type searchResult struct {
	NextCursor *int64          `json:"next_cursor"`
	Items      []model.Command `json:"items"`
}

// CommandSearch pages through teams newest first. next_cursor is the id to
// pass as last_id for the following page and is null on an empty page.
func CommandSearch(c *gin.Context, d *internal.Deps) {
	var q searchQuery
	if !validators.Bind(c, &q) {
		return
	}

	cmds, err := d.Commands.Search(c.Request.Context(), repo.CommandSearch{
		Name:     q.Name,
		Status:   q.Status,
		IsFilled: q.IsFilled,
		LastID:   q.LastID,
	})
	if err != nil {
		apperr.Fail(c, "Failed to search teams", err)
		return
	}

	res := searchResult{Items: cmds}
	if res.Items == nil {
		res.Items = []model.Command{}
	}

	if len(cmds) > 0 {
		last := cmds[len(cmds)-1].ID
		res.NextCursor = &last
	}

	c.JSON(http.StatusOK, res)
}
