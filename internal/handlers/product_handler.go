package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go-bizpos/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- GET: List all products ---
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.Store.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Store.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ScanProduct looks a product up by the barcode the reader sent.
func (h *Handler) ScanProduct(c *gin.Context) {
	p, err := h.Store.GetProductByBarcode(c.Request.Context(), strings.TrimSpace(c.Param("barcode")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type ProductRequest struct {
	Name         string          `json:"name" binding:"required"`
	Barcode      string          `json:"barcode"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	CurrentStock int             `json:"current_stock"`
	ImageURL     string          `json:"image_url"`
}

// --- POST: Add a new product ---
func (h *Handler) AddProduct(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if req.Price.IsNegative() || req.CostPrice.IsNegative() || req.CurrentStock < 0 {
		badRequest(c, "Price, cost and stock cannot be negative")
		return
	}

	p := models.Product{
		Name:         req.Name,
		Category:     req.Category,
		Price:        req.Price,
		CostPrice:    req.CostPrice,
		CurrentStock: req.CurrentStock,
		ImageURL:     req.ImageURL,
	}
	if b := strings.TrimSpace(req.Barcode); b != "" {
		p.Barcode = &b
	}
	if err := h.Store.CreateProduct(c.Request.Context(), &p, op.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// --- PUT: Update product details ---
// Stock cannot be set here; use the movements endpoint.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	// We use a map so we only update what was sent (partial update)
	var updateData map[string]interface{}
	if err := c.ShouldBindJSON(&updateData); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	fields := map[string]interface{}{}
	for _, key := range []string{"name", "category", "image_url"} {
		if v, ok := updateData[key].(string); ok {
			fields[key] = v
		}
	}
	if v, ok := updateData["barcode"].(string); ok {
		if v = strings.TrimSpace(v); v == "" {
			fields["barcode"] = nil
		} else {
			fields["barcode"] = v
		}
	}
	for _, key := range []string{"price", "cost_price"} {
		raw, present := updateData[key]
		if !present {
			continue
		}
		d, err := decimal.NewFromString(fmt.Sprint(raw))
		if err != nil || d.IsNegative() {
			badRequest(c, "Invalid "+key)
			return
		}
		fields[key] = d
	}

	product, err := h.Store.UpdateProduct(c.Request.Context(), id, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

// --- DELETE: Remove a product ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Store.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

type MovementRequest struct {
	Type     string `json:"type" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason"`
}

// RecordMovement books stock in, out or an adjustment by hand.
func (h *Handler) RecordMovement(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	p, err := h.Store.RecordMovement(c.Request.Context(), &models.StockMovement{
		ProductID:  id,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		EmployeeID: op.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListMovements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mvs, err := h.Store.ListMovements(c.Request.Context(), id, 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mvs)
}

// --- UPLOAD: Handle Image Files ---
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
	default:
		badRequest(c, "Only image files are allowed")
		return
	}

	// e.g., "167890123_burger.jpg"
	filename := fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(h.UploadDir, filename)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     strings.TrimRight(h.BaseURL, "/") + "/uploads/" + filename,
	})
}
