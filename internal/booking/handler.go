package booking

import (
	"net/http"

	"mentorbook/internal/api"
	"mentorbook/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc   Service
	async *Async
}

func NewHandler(svc Service) *Handler {
	return &Handler{
		svc:   svc,
		async: NewAsync(svc),
	}
}

// Create books a session for the caller and holds its price.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.BadRequest(c, err.Error())
		return
	}
	in.MenteeID = userID

	req, err := h.async.Create(c.Request.Context(), in).Wait(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) Accept(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	h.respond(c, h.async.Accept(c.Request.Context(), c.Param("id"), userID))
}

func (h *Handler) Decline(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var body DeclineRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	h.respond(c, h.async.Decline(c.Request.Context(), c.Param("id"), userID, body.Reason))
}

func (h *Handler) Reschedule(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var body RescheduleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	h.respond(c, h.async.RequestReschedule(c.Request.Context(), c.Param("id"), userID, body.ProposedAt, body.Reason))
}

func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	h.respond(c, h.async.Cancel(c.Request.Context(), c.Param("id"), userID))
}

// List returns the caller's bookings, as mentee by default or as provider
// with ?as=provider.
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var (
		requests []Request
		err      error
	)
	switch c.DefaultQuery("as", "mentee") {
	case "mentee":
		requests, err = h.svc.ListForMentee(c.Request.Context(), userID)
	case "provider":
		requests, err = h.svc.ListForProvider(c.Request.Context(), userID)
	default:
		api.BadRequest(c, "as must be mentee or provider")
		return
	}
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	req, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	if !req.IsParticipant(userID) {
		api.RespondError(c, ErrNotParticipant)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) respond(c *gin.Context, f *Future[*Request]) {
	req, err := f.Wait(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
