package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go-bizpos/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type registerResponse struct {
	*pos.CashRegister
	Difference decimal.Decimal `json:"difference"`
}

func newRegisterResponse(reg *pos.CashRegister) registerResponse {
	return registerResponse{CashRegister: reg, Difference: reg.Difference()}
}

// TodayRegister returns the operator's register for today, opening it
// with a zero float on first use.
func (h *Handler) TodayRegister(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	reg, err := h.Ledger.Today(c.Request.Context(), op)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRegisterResponse(reg))
}

type OpenRegisterRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount"`
}

func (h *Handler) OpenRegister(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	var req OpenRegisterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid input")
			return
		}
	}
	reg, err := h.Ledger.Open(c.Request.Context(), op, req.OpeningAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRegisterResponse(reg))
}

func (h *Handler) GetRegister(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reg, err := h.Ledger.Get(c.Request.Context(), op, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRegisterResponse(reg))
}

// CloseRegisterRequest carries the counted drawer. Omit it to close at
// the expected amount.
type CloseRegisterRequest struct {
	ClosingAmount *decimal.Decimal `json:"closing_amount"`
}

func (h *Handler) CloseRegister(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req CloseRegisterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid input")
			return
		}
	}

	reg, err := h.Ledger.Close(c.Request.Context(), op, id, req.ClosingAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	h.Metrics.RegisterClosed()
	c.JSON(http.StatusOK, newRegisterResponse(reg))
}

// RegisterHistory lists registers between ?from= and ?to= (YYYY-MM-DD),
// the last 30 days by default. Admins may pick ?employee_id=.
func (h *Handler) RegisterHistory(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	loc := h.Ledger.Now().Location()
	to := h.Ledger.Now()
	from := to.AddDate(0, 0, -30)

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.ParseInLocation(pos.BusinessDayLayout, v, loc); err != nil {
			badRequest(c, "Dates must be in YYYY-MM-DD format")
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.ParseInLocation(pos.BusinessDayLayout, v, loc); err != nil {
			badRequest(c, "Dates must be in YYYY-MM-DD format")
			return
		}
	}
	employeeID, _ := strconv.ParseUint(c.Query("employee_id"), 10, 64)

	regs, err := h.Ledger.History(c.Request.Context(), op, uint(employeeID), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, regs)
}
