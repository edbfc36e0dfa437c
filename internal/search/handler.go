package search

import (
	"net/http"

	"mentorbook/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type browseRequest struct {
	Query
	Offset int `form:"offset" binding:"gte=0"`
	Limit  int `form:"limit" binding:"gte=0,lte=100"`
}

// Browse runs a search and returns one page of the ranked result.
func (h *Handler) Browse(c *gin.Context) {
	var req browseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	results, err := h.engine.Search(c.Request.Context(), req.Query)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultPageSize
	}
	c.JSON(http.StatusOK, api.PageResponse{
		Items:  Page(results, req.Offset, limit),
		Total:  len(results),
		Offset: req.Offset,
		Limit:  limit,
	})
}
