package catalog

import (
	"net/http"
	"strconv"

	"mentorbook/internal/api"
	"mentorbook/internal/apperr"
	"mentorbook/internal/auth"
	"mentorbook/internal/pricing"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store     *Store
	formatter pricing.Formatter
	sessions  SessionVerifier
}

func NewHandler(store *Store, formatter pricing.Formatter, sessions SessionVerifier) *Handler {
	return &Handler{
		store:     store,
		formatter: formatter,
		sessions:  sessions,
	}
}

// GetProvider returns a single provider profile.
func (h *Handler) GetProvider(c *gin.Context) {
	p, err := h.store.GetProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// ListServices returns a provider's services in creation order.
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.store.ListServices(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, services)
}

// CreateService adds a service to the authenticated provider's profile.
func (h *Handler) CreateService(c *gin.Context) {
	h.upsertService(c, "", http.StatusCreated)
}

// UpdateService edits a service. Locked services are saved as a new version.
func (h *Handler) UpdateService(c *gin.Context) {
	h.upsertService(c, c.Param("serviceID"), http.StatusOK)
}

func (h *Handler) upsertService(c *gin.Context, serviceID string, status int) {
	providerID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}
	if providerID != c.Param("id") {
		api.RespondError(c, ErrNotOwner)
		return
	}

	var req UpsertServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	kind, err := ParseKind(req.Kind)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	svc, err := h.store.UpsertService(c.Request.Context(), providerID, Service{
		ID:              serviceID,
		Kind:            kind,
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Description:     req.Description,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(status, svc)
}

type kindResponse struct {
	Kind Kind `json:"kind"`
	KindInfo
}

// ListKinds returns the display metadata for every service kind.
func (h *Handler) ListKinds(c *gin.Context) {
	out := make([]kindResponse, 0, len(kinds))
	for _, k := range Kinds() {
		info, _ := k.Info()
		out = append(out, kindResponse{Kind: k, KindInfo: info})
	}

	c.JSON(http.StatusOK, out)
}

// Quote prices a session of the given length. With service_id the
// service's listed price is prorated, otherwise the provider's base rate is
// used.
func (h *Handler) Quote(c *gin.Context) {
	ctx := c.Request.Context()

	minutes, err := strconv.Atoi(c.DefaultQuery("minutes", strconv.Itoa(pricing.CanonicalMinutes)))
	if err != nil {
		api.RespondError(c, apperr.Validation("minutes", "must be an integer"))
		return
	}

	providerID := c.Query("provider_id")
	if providerID == "" {
		api.RespondError(c, apperr.Validation("provider_id", "is required"))
		return
	}

	p, err := h.store.GetProvider(ctx, providerID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var quote pricing.Quote
	if serviceID := c.Query("service_id"); serviceID != "" {
		svc, err := h.store.GetService(ctx, serviceID)
		if err != nil {
			api.RespondError(c, err)
			return
		}
		if svc.ProviderID != p.ID {
			api.RespondError(c, apperr.Validation("service_id", "does not belong to provider"))
			return
		}
		if svc.Retired() {
			api.RespondError(c, RetiredService(svc))
			return
		}
		quote, err = pricing.NewServiceQuote(h.formatter, svc.Price, svc.DurationMinutes, minutes)
		if err != nil {
			api.RespondError(c, err)
			return
		}
	} else {
		quote, err = pricing.NewQuote(h.formatter, p.BaseRate, minutes)
		if err != nil {
			api.RespondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, quote)
}

// SaveProfile creates or updates the authenticated provider's own profile.
// Aggregates and the active flag are kept from the stored profile.
func (h *Handler) SaveProfile(c *gin.Context) {
	ctx := c.Request.Context()

	providerID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}
	if providerID != c.Param("id") {
		api.RespondError(c, apperr.New(apperr.KindForbidden, "profile belongs to another provider"))
		return
	}

	var req SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	p := Provider{
		ID:          providerID,
		Name:        req.Name,
		Role:        Role(req.Role),
		Company:     req.Company,
		Title:       req.Title,
		Location:    req.Location,
		Institution: req.Institution,
		BatchYear:   req.BatchYear,
		Languages:   req.Languages,
		Expertise:   req.Expertise,
		BaseRate:    req.BaseRate,
		Active:      true,
	}
	status := http.StatusCreated
	existing, err := h.store.GetProvider(ctx, providerID)
	switch {
	case err == nil:
		p.Active = existing.Active
		p.Rating = existing.Rating
		p.ReviewCount = existing.ReviewCount
		p.Sessions = existing.Sessions
		p.CreatedAt = existing.CreatedAt
		status = http.StatusOK
	case !apperr.Is(err, apperr.KindNotFound):
		api.RespondError(c, err)
		return
	}

	saved, err := h.store.SaveProvider(ctx, p)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(status, saved)
}

// Deactivate hides the authenticated provider from search.
func (h *Handler) Deactivate(c *gin.Context) {
	providerID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}
	if providerID != c.Param("id") {
		api.RespondError(c, apperr.New(apperr.KindForbidden, "profile belongs to another provider"))
		return
	}

	if err := h.store.Deactivate(c.Request.Context(), providerID); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "provider deactivated"})
}

// Review rates a provider for one of the caller's completed sessions.
func (h *Handler) Review(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}
	if userID == c.Param("id") {
		api.RespondError(c, apperr.New(apperr.KindForbidden, "providers cannot review themselves"))
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	p, err := h.store.RecordReview(c.Request.Context(), h.sessions, c.Param("id"), req.BookingID, userID, req.Rating)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
