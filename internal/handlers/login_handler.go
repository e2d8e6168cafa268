package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-bizpos/internal/models"
	"go-bizpos/internal/pos"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Find User in DB
	user, err := h.Store.UserByUsername(c.Request.Context(), input.Username)
	if err != nil {
		if errors.Is(err, pos.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}

	// 3. Verify Password (Bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. Generate JWT Token
	op := pos.Operator{ID: user.ID, Name: user.Name, Role: user.Role}
	token, err := h.Issuer.GenerateToken(op)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     user.Role,
		"username": user.Username,
		"name":     user.Name,
	})
}

// Register creates an operator. The very first account becomes admin,
// everybody after that is a cashier until promoted.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	ctx := c.Request.Context()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	n, err := h.Store.CountUsers(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	role := "cashier"
	if n == 0 {
		role = pos.RoleAdmin
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = input.Username
	}
	user := models.User{
		Username:     input.Username,
		Name:         name,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}
	if err := h.Store.CreateUser(ctx, &user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "id": user.ID, "role": user.Role})
}
