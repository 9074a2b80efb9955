package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.customers.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]customerResponse, len(customers))
	for i := range customers {
		resp[i] = h.customerToResponse(c, &customers[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listAllOrders(c *gin.Context) {
	results, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]orderResponse, len(results))
	for i := range results {
		resp[i] = orderToResponse(&results[i])
	}
	c.JSON(http.StatusOK, resp)
}
