package meeting

import (
	"net/http"

	"mentorbook/internal/api"
	"mentorbook/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	binder *Binder
}

func NewHandler(binder *Binder) *Handler {
	return &Handler{binder: binder}
}

// List returns the caller's meeting links.
func (h *Handler) List(c *gin.Context) {
	providerID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	links, err := h.binder.List(c.Request.Context(), providerID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// Connect binds the caller to the platform named in the path.
func (h *Handler) Connect(c *gin.Context) {
	providerID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	link, err := h.binder.Connect(c.Request.Context(), providerID, c.Param("platform"), req.URL)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *Handler) Disconnect(c *gin.Context) {
	providerID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	if err := h.binder.Disconnect(c.Request.Context(), providerID, c.Param("platform")); err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "meeting link disconnected"})
}
