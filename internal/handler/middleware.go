package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dungnguyen2112/FLowershop/internal/domain/auth"
	"github.com/dungnguyen2112/FLowershop/internal/domain/customer"
)

// claimsKey stores the parsed token claims on the gin context.
const claimsKey = "authClaims"

// authenticated verifies the bearer token and stores its claims for the
// handlers downstream.
func (h *Handler) authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		claims, err := h.auth.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidToken.Error()})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// adminRequired rejects tokens whose role is not the admin role. Must run
// after authenticated.
func (h *Handler) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentClaims(c).RoleID != customer.AdminRoleID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not have sufficient permissions"})
			return
		}
		c.Next()
	}
}

// currentClaims returns the claims stored by authenticated.
func currentClaims(c *gin.Context) *auth.Claims {
	return c.MustGet(claimsKey).(*auth.Claims)
}
