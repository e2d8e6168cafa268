package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go-bizpos/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetServices lists active services; admins may pass ?all=true.
func (h *Handler) GetServices(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	services, err := h.Store.ListServices(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

type ServiceRequest struct {
	Name            string          `json:"name" binding:"required"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	Active          *bool           `json:"active"`
}

func (h *Handler) AddService(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if !req.Price.IsPositive() || req.DurationMinutes < 0 {
		badRequest(c, "Price must be positive")
		return
	}

	svc := models.Service{Name: req.Name, Price: req.Price, DurationMinutes: req.DurationMinutes, Active: true}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if err := h.Store.CreateService(c.Request.Context(), &svc); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// SearchCustomers backs the customer picker: ?q=term&limit=n.
func (h *Handler) SearchCustomers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	customers, err := h.Store.SearchCustomers(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

type CustomerRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Document string `json:"document"`
}

func (h *Handler) AddCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cust := models.Customer{
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Document: strings.TrimSpace(req.Document),
	}
	if cust.Name == "" {
		badRequest(c, "Name is required")
		return
	}
	if err := h.Store.CreateCustomer(c.Request.Context(), &cust); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}
