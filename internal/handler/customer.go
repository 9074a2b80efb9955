package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dungnguyen2112/FLowershop/internal/domain/customer"
)

type customerResponse struct {
	CustomerID int64   `json:"customer_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Address    string  `json:"address"`
	TotalSpent float64 `json:"total_spent"`
	LoyaltyID  *int64  `json:"loyalty_id"`
	LoyalName  *string `json:"loyal_name"`
}

type customerUpdateRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
}

type passwordChangeRequest struct {
	Password    string `json:"password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// customerToResponse resolves the tier name when the customer holds one.
func (h *Handler) customerToResponse(c *gin.Context, cust *customer.Customer) customerResponse {
	resp := customerResponse{
		CustomerID: cust.ID,
		Name:       cust.Name,
		Email:      cust.Email,
		Address:    cust.Address,
		TotalSpent: cust.TotalSpent.InexactFloat64(),
		LoyaltyID:  cust.LoyaltyID,
	}
	if cust.LoyaltyID != nil {
		if tier, err := h.tiers.GetByID(c.Request.Context(), *cust.LoyaltyID); err == nil {
			resp.LoyalName = &tier.Status
		}
	}
	return resp
}

func (h *Handler) getCustomer(c *gin.Context) {
	cust, err := h.customers.GetByID(c.Request.Context(), currentClaims(c).CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.customerToResponse(c, cust))
}

func (h *Handler) updateCustomer(c *gin.Context) {
	var req customerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cust, err := h.customers.GetByID(c.Request.Context(), currentClaims(c).CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Name != nil {
		cust.Name = *req.Name
	}
	if req.Email != nil {
		cust.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		cust.PhoneNumber = *req.PhoneNumber
	}
	if req.Address != nil {
		cust.Address = *req.Address
	}

	if err := h.customers.Update(c.Request.Context(), cust); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.customerToResponse(c, cust))
}

func (h *Handler) changePassword(c *gin.Context) {
	var req passwordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cust, err := h.customers.GetByID(c.Request.Context(), currentClaims(c).CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !h.auth.VerifyPassword(cust.HashedPassword, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
		return
	}

	hashed, err := h.auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.customers.UpdatePassword(c.Request.Context(), cust.ID, hashed); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
