// Package handler exposes the REST API on a gin engine: public auth
// endpoints, bearer-token customer endpoints, and admin-gated catalog writes
// and reporting.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dungnguyen2112/FLowershop/internal/domain/auth"
	"github.com/dungnguyen2112/FLowershop/internal/domain/customer"
	"github.com/dungnguyen2112/FLowershop/internal/domain/loyalty"
	"github.com/dungnguyen2112/FLowershop/internal/domain/order"
	"github.com/dungnguyen2112/FLowershop/internal/domain/product"
	"github.com/dungnguyen2112/FLowershop/internal/domain/revenue"
)

// Handler wires the domain services and repositories to HTTP routes.
type Handler struct {
	auth      *auth.Service
	customers customer.Repository
	products  product.Repository
	tiers     loyalty.Repository
	orders    *order.Service
	revenue   revenue.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	authService *auth.Service,
	customers customer.Repository,
	products product.Repository,
	tiers loyalty.Repository,
	orders *order.Service,
	rev revenue.Repository,
) *Handler {
	return &Handler{
		auth:      authService,
		customers: customers,
		products:  products,
		tiers:     tiers,
		orders:    orders,
		revenue:   rev,
	}
}

// Routes registers every endpoint on the engine. Catalog reads and order
// endpoints require a valid bearer token; catalog writes, admin listings, and
// revenue reports additionally require the admin role.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Flower Shop API"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("", h.register)
		authGroup.POST("/token", h.login)
	}

	api := r.Group("/api", h.authenticated())
	{
		api.GET("/customers", h.getCustomer)
		api.PUT("/customers", h.updateCustomer)
		api.PUT("/customers/password", h.changePassword)

		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)
		api.POST("/products", h.adminRequired(), h.createProduct)
		api.PUT("/products/:id", h.adminRequired(), h.updateProduct)
		api.DELETE("/products/:id", h.adminRequired(), h.deleteProduct)

		api.POST("/orders", h.createOrder)
		api.GET("/orders", h.listOrders)
		api.GET("/orders/:id", h.getOrder)
		api.PUT("/orders/:id", h.updateOrder)
		api.DELETE("/orders/:id", h.deleteOrder)

		admin := api.Group("/admin", h.adminRequired())
		{
			admin.GET("/products", h.listProducts)
			admin.GET("/customers", h.listCustomers)
			admin.GET("/orders", h.listAllOrders)
		}

		rev := api.Group("/revenue", h.adminRequired())
		{
			rev.GET("/statistics/daily", h.dailyRevenue)
			rev.GET("/statistics/monthly", h.monthlyRevenue)
			rev.GET("/statistics/yearly", h.yearlyRevenue)
		}
	}
}

// respondError maps domain errors to HTTP responses. Validation and stock
// failures are client errors with messages naming the offending ids; a
// missing or foreign order is a plain 404; anything unexpected is logged and
// answered with a generic 500 body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, customer.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer not found"})
	case errors.Is(err, customer.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
	case errors.Is(err, product.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, order.ErrEmptyItems):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		var (
			pnfErr *order.ProductNotFoundError
			isErr  *order.InsufficientStockError
			iqErr  *order.InvalidQuantityError
		)
		switch {
		case errors.As(err, &pnfErr), errors.As(err, &isErr), errors.As(err, &iqErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			zctx.From(c.Request.Context()).Error("request failed",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
	}
}
