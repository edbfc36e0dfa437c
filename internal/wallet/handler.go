package wallet

import (
	"net/http"
	"strconv"

	"mentorbook/internal/api"
	"mentorbook/internal/auth"
	"mentorbook/internal/pricing"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ledger    *Ledger
	formatter pricing.Formatter
}

func NewHandler(ledger *Ledger, formatter pricing.Formatter) *Handler {
	return &Handler{
		ledger:    ledger,
		formatter: formatter,
	}
}

type accountResponse struct {
	Account
	Display string `json:"display"`
}

func (h *Handler) respondAccount(c *gin.Context, status int, a Account) {
	c.JSON(status, accountResponse{Account: a, Display: h.formatter.Format(a.Available)})
}

func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	h.respondAccount(c, http.StatusOK, h.ledger.Account(MenteeAccount(userID)))
}

func (h *Handler) TopUp(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	a, err := h.ledger.TopUp(c.Request.Context(), MenteeAccount(userID), req.Amount)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	h.respondAccount(c, http.StatusOK, a)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}
	h.history(c, MenteeAccount(userID))
}

func (h *Handler) GetEarnings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	h.respondAccount(c, http.StatusOK, h.ledger.Account(EarningsAccount(userID)))
}

func (h *Handler) ListEarnings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}
	h.history(c, EarningsAccount(userID))
}

func (h *Handler) Withdraw(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Unauthorized(c)
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, err.Error())
		return
	}

	tx, err := h.ledger.Withdraw(c.Request.Context(), EarningsAccount(userID), req.Amount)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, tx)
}

func (h *Handler) history(c *gin.Context, accountID string) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs, err := h.ledger.History(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txs)
}
