package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dungnguyen2112/FLowershop/internal/domain/customer"
)

type registerRequest struct {
	Name        string `json:"name" binding:"required,min=3"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phone_number" binding:"required,min=3"`
	Address     string `json:"address" binding:"required,min=3"`
	RoleID      int64  `json:"role_id" binding:"required,min=1"`
}

// login accepts the OAuth2 password form: username carries the email.
type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashed, err := h.auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	cust := &customer.Customer{
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: hashed,
		PhoneNumber:    req.PhoneNumber,
		Address:        req.Address,
		TotalSpent:     decimal.Zero,
		RoleID:         req.RoleID,
	}
	if err := h.customers.Create(c.Request.Context(), cust); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Customer created successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cust, err := h.customers.GetByEmail(c.Request.Context(), req.Username)
	if err != nil || !h.auth.VerifyPassword(cust.HashedPassword, req.Password) {
		// One answer for unknown email and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "could not validate credentials"})
		return
	}

	token, err := h.auth.CreateToken(cust.Email, cust.ID, cust.RoleID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
