package handlers

import (
	"log"
	"net/http"

	"go-bizpos/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cartResponse struct {
	*pos.Cart
	Totals pos.Totals `json:"totals"`
}

func newCartResponse(cart *pos.Cart) cartResponse {
	return cartResponse{Cart: cart, Totals: cart.Totals()}
}

// withCart loads the operator's cart, runs mutate and saves the result.
// Nothing is saved when mutate fails.
func (h *Handler) withCart(c *gin.Context, mutate func(op pos.Operator, cart *pos.Cart) error) {
	op, ok := operator(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	cart, err := h.Carts.Load(ctx, op.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := mutate(op, cart); err != nil {
		respondError(c, err)
		return
	}
	if err := h.Carts.Save(ctx, op.ID, cart); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

func (h *Handler) GetCart(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	cart, err := h.Carts.Load(c.Request.Context(), op.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

func (h *Handler) ClearCart(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	if err := h.Carts.Delete(c.Request.Context(), op.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(pos.NewCart()))
}

type AddItemRequest struct {
	ID   uint         `json:"id" binding:"required"`
	Type pos.ItemType `json:"type" binding:"required"`
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	h.withCart(c, func(_ pos.Operator, cart *pos.Cart) error {
		entry, err := h.Store.CatalogEntry(c.Request.Context(), req.Type, req.ID)
		if err != nil {
			return err
		}
		return cart.AddItem(entry)
	})
}

type QuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	typ := pos.ItemType(c.Param("type"))
	if !typ.Valid() {
		respondError(c, pos.ErrInvalidItemType)
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	h.withCart(c, func(_ pos.Operator, cart *pos.Cart) error {
		stock := 0
		if typ == pos.ItemProduct {
			entry, err := h.Store.CatalogEntry(c.Request.Context(), typ, id)
			if err != nil {
				return err
			}
			stock = entry.Stock
		}
		return cart.UpdateQuantity(id, typ, req.Delta, stock)
	})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	typ := pos.ItemType(c.Param("type"))
	h.withCart(c, func(_ pos.Operator, cart *pos.Cart) error {
		cart.RemoveItem(id, typ)
		return nil
	})
}

type DiscountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) SetDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	h.withCart(c, func(_ pos.Operator, cart *pos.Cart) error {
		return cart.SetDiscount(req.Amount)
	})
}

// CustomerRefRequest selects a customer; a null id clears the selection.
type CustomerRefRequest struct {
	CustomerID *uint `json:"customer_id"`
}

func (h *Handler) SetCustomer(c *gin.Context) {
	var req CustomerRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	h.withCart(c, func(_ pos.Operator, cart *pos.Cart) error {
		if req.CustomerID == nil {
			cart.SetCustomer(nil)
			return nil
		}
		cust, err := h.Store.GetCustomer(c.Request.Context(), *req.CustomerID)
		if err != nil {
			return err
		}
		cart.SetCustomer(&pos.CustomerRef{ID: cust.ID, Name: cust.Name})
		return nil
	})
}

type PaymentRequest struct {
	Method string `json:"method" binding:"required"`
}

func (h *Handler) SetPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	h.withCart(c, func(_ pos.Operator, cart *pos.Cart) error {
		m, err := pos.ParsePaymentMethod(req.Method)
		if err != nil {
			return err
		}
		return cart.SetPaymentMethod(m)
	})
}

// CheckoutRequest is optional. AmountPaid is the cash handed over; zero or
// absent means exact payment.
type CheckoutRequest struct {
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentMethod string          `json:"payment_method"`
}

// Checkout commits the operator's cart as a sale.
func (h *Handler) Checkout(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body")
			return
		}
	}
	ctx := c.Request.Context()

	cart, err := h.Carts.Load(ctx, op.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.PaymentMethod != "" {
		m, err := pos.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			h.Metrics.CheckoutFailed(err)
			respondError(c, err)
			return
		}
		if err := cart.SetPaymentMethod(m); err != nil {
			h.Metrics.CheckoutFailed(err)
			respondError(c, err)
			return
		}
	}

	sale, err := h.Committer.Commit(ctx, op, cart, req.AmountPaid)
	if err != nil {
		h.Metrics.CheckoutFailed(err)
		respondError(c, err)
		return
	}
	h.Metrics.SaleCommitted(sale)

	// The sale is stored at this point, so cart cleanup never fails the request.
	if err := h.Carts.Delete(ctx, op.ID); err != nil {
		log.Printf("⚠️ sale %s stored but cart of employee %d not deleted: %v", sale.Reference, op.ID, err)
		if err := h.Carts.Save(ctx, op.ID, cart); err != nil {
			log.Printf("❌ could not reset cart of employee %d: %v", op.ID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale successful!",
		"sale":    sale,
	})
}

// GetSale returns a stored sale. Cashiers only see their own.
func (h *Handler) GetSale(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sale, err := h.Store.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !op.IsAdmin() && sale.EmployeeID != op.ID {
		respondError(c, pos.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, sale)
}
