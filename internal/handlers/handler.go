package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"go-bizpos/internal/auth"
	"go-bizpos/internal/database"
	"go-bizpos/internal/metrics"
	"go-bizpos/internal/middleware"
	"go-bizpos/internal/pos"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Assistant answers free-form questions about the shop.
type Assistant interface {
	Ask(ctx context.Context, op pos.Operator, message string) (string, error)
}

// Deps is everything the HTTP layer talks to. Metrics and Assistant may be nil.
type Deps struct {
	Store     *database.Store
	Carts     pos.CartStore
	Ledger    *pos.Ledger
	Committer *pos.Committer
	Issuer    *auth.Issuer
	Metrics   *metrics.Metrics
	Assistant Assistant

	BaseURL   string
	UploadDir string
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.UploadDir == "" {
		d.UploadDir = "./uploads"
	}
	return &Handler{Deps: d}
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pos.ErrNoOperator):
		return http.StatusUnauthorized
	case errors.Is(err, pos.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, pos.ErrNotFound), errors.Is(err, pos.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, pos.ErrOutOfStock),
		errors.Is(err, pos.ErrRegisterClosed),
		errors.Is(err, pos.ErrRegisterExists),
		errors.Is(err, database.ErrUserExists),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	case errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, pos.ErrNonPositiveTotal),
		errors.Is(err, pos.ErrInvalidDiscount),
		errors.Is(err, pos.ErrInvalidAmount),
		errors.Is(err, pos.ErrInvalidQuantity),
		errors.Is(err, pos.ErrInvalidItemType),
		errors.Is(err, pos.ErrInvalidPaymentMethod),
		errors.Is(err, pos.ErrInsufficientPayment),
		errors.Is(err, database.ErrInvalidMovement):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// operator fetches the authenticated operator or answers 401.
func operator(c *gin.Context) (pos.Operator, bool) {
	op, ok := middleware.Operator(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": pos.ErrNoOperator.Error()})
		return pos.Operator{}, false
	}
	return op, true
}
